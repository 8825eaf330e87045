// Package lm implements the deterministic-FSA language models used for
// shallow-fusion rescoring during beam search: a trivial unit LM used to
// seed the decoder's bos state, and an ARPA back-off n-gram LM.
//
// Grounded on the original sio::LanguageModel's on-demand-FSA contract
// (beam_search.h calls lm.GetScore(state, olabel, &next_state)) and the
// teacher's language package for ARPA parsing idiom.
package lm

import "github.com/sio-go/sio/tokenizer"

// StateID identifies a language-model state: the decoder carries one per
// active LM per token, recombining tokens whose (graph state, every LM
// state) tuple matches. 0 is reserved for NullState.
type StateID = uint32

// Lm is a deterministic on-demand FSA: from state and an emitted token,
// it returns the incremental log-score of that transition and the state
// to carry forward. Implementations must be deterministic: the same
// (state, token) pair always yields the same (score, next).
type Lm interface {
	// NullState is the LM's start state, before any token has been
	// consumed.
	NullState() StateID

	// GetScore scores token leaving state, returning the log-domain
	// score to add to the token's running total and the state to carry
	// into the next step.
	GetScore(state StateID, token tokenizer.TokenID) (score float32, next StateID)
}

// PrefixTreeLM is the trivial "unit" LM: every transition scores 0 and
// there is exactly one state. It is lms_[0]'s default per the original's
// LoadPrefixTreeLm, used when no real LM is configured so shallow fusion
// degenerates to pure acoustic-graph decoding.
type PrefixTreeLM struct{}

func (PrefixTreeLM) NullState() StateID { return 0 }

func (PrefixTreeLM) GetScore(state StateID, token tokenizer.TokenID) (float32, StateID) {
	return 0, 0
}
