package decoder

import (
	"sort"

	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/sioerr"
)

// frontierExpandEmitting consumes one acoustic frame: every token set in
// the last pinned-down frontier is extended across its state's emitting
// arcs (neither Eps nor InputEnd), scored by score[arc.Ilabel] plus the
// running score offset.
func (b *BeamSearch) frontierExpandEmitting(score []float32) error {
	sioerr.Check(len(b.frontier) == 0, "decoder: frontierExpandEmitting with non-empty frontier")

	// Drop the beam range by a fixed amount before the new frame's
	// scores arrive; score_offsets_ keeps the range well-conditioned
	// over long audio regardless.
	b.scoreMax -= 1000.0
	b.scoreMin -= 1000.0
	b.curTime++

	var scoreOffset float32
	if b.config.ApplyScoreOffsets {
		scoreOffset = b.scoreOffsets[len(b.scoreOffsets)-1]
	}

	last := b.lattice[len(b.lattice)-1]
	for i := range last {
		src := &last[i]
		it := b.graph.ArcIterator(handleToState(src.Handle))
		for !it.Done() {
			arc := it.Value()
			if arc.Ilabel != fsa.Eps && arc.Ilabel != fsa.InputEnd {
				s := score[int(arc.Ilabel)] + scoreOffset
				if src.BestScore+arc.Score+s >= b.scoreMin {
					dstK := b.findOrAddTokenSet(composeStateHandle(0, arc.Dst))
					if _, err := b.tokenPassing(src, arc, s, &b.frontier[dstK]); err != nil {
						return err
					}
				}
			}
			it.Next()
		}
	}
	return nil
}

// frontierExpandEps closes the frontier under epsilon transitions: any
// token set whose state has an epsilon out-arc is queued and drained,
// re-queuing a destination whenever it changed and still has its own
// epsilon arc (so closure chases multi-hop epsilon paths to a fixpoint).
func (b *BeamSearch) frontierExpandEps() error {
	sioerr.Check(len(b.epsQueue) == 0, "decoder: frontierExpandEps with non-empty eps queue")

	for k := range b.frontier {
		if b.graph.ContainsEpsilonArc(handleToState(b.frontier[k].Handle)) {
			b.epsQueue = append(b.epsQueue, k)
		}
	}

	for len(b.epsQueue) > 0 {
		srcK := b.epsQueue[len(b.epsQueue)-1]
		b.epsQueue = b.epsQueue[:len(b.epsQueue)-1]

		// Copied by value: findOrAddTokenSet below may grow b.frontier
		// and relocate its backing array, so a *TokenSet into it would
		// not stay valid across that call.
		src := b.frontier[srcK]
		if src.BestScore < b.scoreMin {
			continue
		}

		it := b.graph.ArcIterator(handleToState(src.Handle))
		for !it.Done() {
			arc := it.Value()
			if arc.Ilabel == fsa.Eps {
				if src.BestScore+arc.Score >= b.scoreMin {
					dstK := b.findOrAddTokenSet(composeStateHandle(0, arc.Dst))
					changed, err := b.tokenPassing(&src, arc, 0.0, &b.frontier[dstK])
					if err != nil {
						return err
					}
					if changed && b.graph.ContainsEpsilonArc(arc.Dst) {
						b.epsQueue = append(b.epsQueue, dstK)
					}
				}
			}
			it.Next()
		}
	}
	return nil
}

// frontierExpandEos expands only InputEnd arcs from the last pinned-down
// frontier, reaching the graph's final state. Called once, after the
// last real frame.
func (b *BeamSearch) frontierExpandEos() error {
	sioerr.Check(len(b.frontier) == 0, "decoder: frontierExpandEos with non-empty frontier")

	last := b.lattice[len(b.lattice)-1]
	for i := range last {
		src := &last[i]
		it := b.graph.ArcIterator(handleToState(src.Handle))
		for !it.Done() {
			arc := it.Value()
			if arc.Ilabel == fsa.InputEnd {
				dstK := b.findOrAddTokenSet(composeStateHandle(0, arc.Dst))
				if _, err := b.tokenPassing(src, arc, 0.0, &b.frontier[dstK]); err != nil {
					return err
				}
			}
			it.Next()
		}
	}
	return nil
}

func tokenSetBetterThan(x, y *TokenSet) bool {
	if x.BestScore != y.BestScore {
		return x.BestScore > y.BestScore
	}
	return x.Handle < y.Handle
}

// frontierPrune tightens the beam to [score_max-beam, score_max] and, if
// max_active bounds the frontier further, keeps only the best
// max_active token sets. The best token set always ends up first.
func (b *BeamSearch) frontierPrune() error {
	b.scoreMin = b.scoreMax - b.config.Beam

	if b.config.MaxActive > 0 && len(b.frontier) > b.config.MaxActive {
		sort.Slice(b.frontier, func(i, j int) bool {
			return tokenSetBetterThan(&b.frontier[i], &b.frontier[j])
		})
		b.frontier = b.frontier[:b.config.MaxActive]
		if b.frontier[len(b.frontier)-1].BestScore > b.scoreMin {
			b.scoreMin = b.frontier[len(b.frontier)-1].BestScore
		}
	} else {
		sort.Slice(b.frontier, func(i, j int) bool {
			return tokenSetBetterThan(&b.frontier[i], &b.frontier[j])
		})
	}

	sioerr.Check(len(b.frontier) == 0 || b.frontier[0].BestScore == b.scoreMax,
		"decoder: best token set lost after pruning")
	return nil
}

// frontierPinDown commits the current frontier as the next lattice
// column, then clears the frontier (and its index) for the next frame.
func (b *BeamSearch) frontierPinDown() {
	pinned := make([]TokenSet, len(b.frontier))
	copy(pinned, b.frontier)
	b.lattice = append(b.lattice, pinned)

	b.frontier = b.frontier[:0]
	for k := range b.frontierMap {
		delete(b.frontierMap, k)
	}

	if b.config.ApplyScoreOffsets {
		b.scoreOffsets = append(b.scoreOffsets, -b.scoreMax)
	}
}

// traceBestPath walks up to NBest surviving tokens at the final state
// back to InitSession's seed, collecting each non-epsilon arc's output
// label into nbest, best hypothesis first.
func (b *BeamSearch) traceBestPath() error {
	sioerr.Check(len(b.nbest) == 0, "decoder: traceBestPath called twice")
	sioerr.Check(len(b.frontier) <= 1, "decoder: expected at most one surviving token set at EOS")

	k, ok := b.frontierMap[composeStateHandle(0, b.graph.FinalState)]
	if !ok {
		return sioerr.Newf(sioerr.NoRecognitionResult,
			"decoder: no surviving hypothesis reaches the final state, session %q", b.sessionKey)
	}

	p := b.frontier[k].Head
	for i := 0; i < b.config.NBest && p != nil; i, p = i+1, p.Next {
		var path []int32
		for t := p; t != nil; t = t.TraceBack.Token {
			if t.TraceBack.Arc.Olabel != fsa.Eps {
				path = append(path, t.TraceBack.Arc.Olabel)
			}
		}
		for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
			path[l], path[r] = path[r], path[l]
		}
		b.nbest = append(b.nbest, path)
	}
	return nil
}
