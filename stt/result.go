package stt

// Result holds one session's final recognition output.
//
// Adapted from the teacher's decoder.Result: Text is kept, LogScore is
// not carried, and Words is dropped (the token-topology graph carries no
// per-word frame alignment the way the teacher's HMM state sequence did)
// in favor of Tokens, the raw decoded token-id sequence including its
// bos/eos bookends.
type Result struct {
	Text   string
	Tokens []int32
}
