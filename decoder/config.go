// Package decoder implements token-passing beam-search decoding over a
// weighted FST decoding graph with shallow-fusion language-model
// rescoring.
//
// Grounded directly on sio::BeamSearch (beam_search.h): the frontier
// expansion / pruning / pin-down cycle, the score-offset re-centering
// for numerical stability over long audio, and the context-recombining
// token-set representation are all ports of that class, kept in its
// method shape but expressed with Go's explicit error returns instead
// of the original's CHECK-or-abort style.
package decoder

// MaxLM bounds the number of simultaneously active shallow-fusion
// language models: lookahead/internal-LM subtractor, big external LM,
// domain LM, and hotword/hint LM, per the original's SIO_MAX_LM.
const MaxLM = 5

// Config holds the beam search's tunable parameters.
type Config struct {
	Debug bool

	Beam      float32
	MaxActive int

	// TokenSetSize bounds how many distinct-LM-context tokens survive per
	// TokenSet. Typed f32 to match the original's Config field (and the
	// rest of this table), not because fractional values are meaningful.
	TokenSetSize float32

	NBest int

	InsertionPenalty  float32
	ApplyScoreOffsets bool // numerical stability over long audio

	TokenAllocatorSlabSize int
}

// DefaultConfig returns the configuration the original ships as its
// struct defaults.
func DefaultConfig() Config {
	return Config{
		Beam:                   16.0,
		MaxActive:              12,
		TokenSetSize:           1.0,
		NBest:                  1,
		InsertionPenalty:       0.0,
		ApplyScoreOffsets:      true,
		TokenAllocatorSlabSize: 4096,
	}
}
