package decoder

import (
	"github.com/asticode/go-astilog"
	"github.com/google/uuid"

	"github.com/sio-go/sio/allocator"
	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/lm"
	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/tokenizer"
)

// BeamSearch is a token-passing beam-search decoder over graph, scoring
// tokens against tok's vocabulary and rescoring with every model in lms
// via shallow fusion. One BeamSearch instance may run many sessions
// sequentially (InitSession / Push* / DeinitSession), never concurrently.
type BeamSearch struct {
	config Config
	graph  *fsa.Fst
	tok    tokenizer.Tokenizer
	lms    []lm.Lm

	sessionKey string

	// lattice holds one pinned-down frontier per consumed time frame:
	// lattice[k] is the frontier reached after frame k.
	lattice    [][]TokenSet
	tokenArena *allocator.Slab[Token]

	curTime     int
	frontier    []TokenSet
	frontierMap map[StateHandle]int
	epsQueue    []int

	scoreMax float32
	scoreMin float32

	// scoreOffsets keeps per-frame hypothesis scores in a stable dynamic
	// range over long audio; scoreOffsets[-1] is added to every new
	// frame's acoustic score, and a new entry -scoreMax is pushed at
	// the end of every frame.
	scoreOffsets []float32

	nbest [][]tokenizer.TokenID
}

// New builds a BeamSearch over graph and tok. With no lms given, it
// falls back to the trivial unit LM (pure acoustic-graph decoding),
// mirroring the original's LoadPrefixTreeLm default.
func New(config Config, graph *fsa.Fst, tok tokenizer.Tokenizer, lms ...lm.Lm) (*BeamSearch, error) {
	if len(lms) == 0 {
		lms = []lm.Lm{lm.PrefixTreeLM{}}
	}
	if len(lms) > MaxLM {
		return nil, sioerr.Newf(sioerr.InvalidArgument, "decoder: %d language models exceeds MaxLM=%d", len(lms), MaxLM)
	}

	return &BeamSearch{
		config:     config,
		graph:      graph,
		tok:        tok,
		lms:        lms,
		tokenArena: allocator.New[Token](config.TokenAllocatorSlabSize, 0),
	}, nil
}

// InitSession resets the decoder to an empty trellis seeded with a
// single bos hypothesis at the graph's start state, then lets epsilon
// closure run before the first frame arrives. sessionKey identifies the
// session in logs and diagnostics; an empty key is replaced by a
// generated one.
func (b *BeamSearch) InitSession(sessionKey string) error {
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	b.sessionKey = sessionKey
	astilog.Debugf("decoder: InitSession %s", sessionKey)

	sioerr.Check(b.tokenArena.NumUsed() == 0, "decoder: InitSession with tokens still live")
	sioerr.Check(len(b.lattice) == 0, "decoder: InitSession with non-empty lattice")
	b.lattice = make([][]TokenSet, 0, 25*30)

	sioerr.Check(len(b.frontier) == 0, "decoder: InitSession with non-empty frontier")
	b.frontier = make([]TokenSet, 0, b.config.MaxActive*3)

	sioerr.Check(len(b.frontierMap) == 0, "decoder: InitSession with non-empty frontier map")
	b.frontierMap = make(map[StateHandle]int, b.config.MaxActive*6)

	if b.config.ApplyScoreOffsets {
		sioerr.Check(len(b.scoreOffsets) == 0, "decoder: InitSession with stale score offsets")
		b.scoreOffsets = append(b.scoreOffsets, 0.0)
	}

	t, err := b.newToken(nil)
	if err != nil {
		return err
	}
	t.TraceBack.Arc.Ilabel = fsa.Eps
	t.TraceBack.Arc.Olabel = b.tok.Bos()

	for i, model := range b.lms {
		score, next := model.GetScore(model.NullState(), b.tok.Bos())
		t.TotalScore += score
		t.LmStates[i] = next
	}

	sioerr.Check(b.curTime == 0, "decoder: InitSession with nonzero cur_time")
	k := b.findOrAddTokenSet(composeStateHandle(0, b.graph.StartState))
	sioerr.Check(k == 0, "decoder: start state did not claim frontier slot 0")
	ts := &b.frontier[0]
	sioerr.Check(ts.Head == nil, "decoder: start token set already populated")
	ts.Head = t
	ts.BestScore = t.TotalScore

	b.scoreMax = ts.BestScore
	b.scoreMin = b.scoreMax - b.config.Beam

	if err := b.frontierExpandEps(); err != nil {
		return err
	}
	b.frontierPinDown()

	return nil
}

// Push advances the session by one acoustic frame. score is this
// frame's per-token log-posterior vector, indexed by token id exactly
// as the graph's emitting-arc ilabels are.
func (b *BeamSearch) Push(score []float32) error {
	if err := b.frontierExpandEmitting(score); err != nil {
		return err
	}
	if err := b.frontierExpandEps(); err != nil {
		return err
	}
	if err := b.frontierPrune(); err != nil {
		return err
	}
	b.frontierPinDown()
	b.onFrameEnd()
	return nil
}

// PushEos closes the session's input: it expands InputEnd arcs into the
// graph's final state and traces back the surviving n-best paths.
func (b *BeamSearch) PushEos() error {
	if err := b.frontierExpandEos(); err != nil {
		return err
	}
	return b.traceBestPath()
}

// NBest returns the token-id sequences traced back by PushEos, best
// hypothesis first.
func (b *BeamSearch) NBest() [][]tokenizer.TokenID {
	return b.nbest
}

// DeinitSession releases the session's trellis and tokens so the
// BeamSearch can be reused for a fresh InitSession.
func (b *BeamSearch) DeinitSession() error {
	b.curTime = 0
	b.frontier = nil
	b.frontierMap = nil
	b.lattice = nil
	b.tokenArena.Clear()

	if b.config.ApplyScoreOffsets {
		b.scoreOffsets = nil
	}
	b.nbest = nil

	return nil
}

func (b *BeamSearch) onFrameEnd() {
	if !b.config.Debug {
		return
	}
	astilog.Debugf("decoder: t=%d score_max=%.3f beam_width=%.3f active=%d",
		b.curTime, b.scoreMax, b.scoreMax-b.scoreMin, len(b.lattice[len(b.lattice)-1]))
}
