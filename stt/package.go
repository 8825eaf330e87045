// Package stt composes a tokenizer, feature extractor, acoustic scorer,
// and beam-search decoder into one loaded model ("Package") and the
// push/flush/read session lifecycle built on top of it.
//
// Grounded on the teacher's top-level transcript.go Transcriber, widened
// from its fixed HMM/GMM/dictionary pipeline to the token-topology
// decoding stack: a Package is the new Transcriber-equivalent load unit,
// a Session its per-utterance handle.
package stt

import (
	"github.com/sio-go/sio/decoder"
	"github.com/sio-go/sio/feature"
	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/lm"
	"github.com/sio-go/sio/scorer"
	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/tokenizer"
)

// Package bundles everything one decoding session needs: the graph and
// tokenizer are read-only and shared across sessions; DecoderConfig is
// copied into every new Session's own BeamSearch.
type Package struct {
	Tokenizer tokenizer.Tokenizer
	Graph     *fsa.Fst
	Scorer    *scorer.Net
	Lms       []lm.Lm

	FeatureConfig feature.Config
	DecoderConfig decoder.Config
}

// NewSession creates a fresh Session bound to p, with its own BeamSearch
// and empty sample buffer. sessionKey identifies the session in logs;
// an empty key gets a generated one.
func (p *Package) NewSession(sessionKey string) (*Session, error) {
	bs, err := decoder.New(p.DecoderConfig, p.Graph, p.Tokenizer, p.Lms...)
	if err != nil {
		return nil, err
	}
	if err := bs.InitSession(sessionKey); err != nil {
		return nil, err
	}
	return &Session{pkg: p, beam: bs}, nil
}

// Validate reports whether p is ready to build sessions from: Tokenizer,
// Graph and Scorer must be set (a nil one panics via sioerr.Check), and
// the scorer's output dimension must match the tokenizer's vocabulary.
// Lms, FeatureConfig and DecoderConfig are not checked.
func (p *Package) Validate() error {
	sioerr.Check(p.Tokenizer != nil, "stt: Package missing Tokenizer")
	sioerr.Check(p.Graph != nil, "stt: Package missing Graph")
	sioerr.Check(p.Scorer != nil, "stt: Package missing Scorer")
	if p.Scorer.OutputDim != p.Tokenizer.Size() {
		return sioerr.Newf(sioerr.InvalidArgument,
			"stt: scorer output dim %d does not match tokenizer size %d", p.Scorer.OutputDim, p.Tokenizer.Size())
	}
	return nil
}
