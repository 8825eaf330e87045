package decoder

import (
	"github.com/sio-go/sio/fsa"
	"github.com/sio-go/sio/lm"
)

// StateHandle identifies a unique state in the decoding graph during
// search. For today's single-graph decoding it is exactly a graph state
// id; composeStateHandle/handleToState are the seam a future multi-graph
// composition (lexicon + external LM as separate FSTs) would widen to a
// packed (graph index, state id) pair.
type StateHandle = fsa.StateID

func composeStateHandle(graph int, state fsa.StateID) StateHandle {
	_ = graph
	return state
}

func handleToState(h StateHandle) fsa.StateID {
	return h
}

// TraceBack records how a Token was produced: the predecessor token, the
// graph arc taken, the acoustic score paid, and each LM's incremental
// score (for diagnostics; total_score already folds these in).
type TraceBack struct {
	Token    *Token
	Arc      fsa.Arc
	Score    float32
	LmScores [MaxLM]float32
}

// Token is one surviving search hypothesis at a (time, StateHandle)
// location. Next chains tokens within the same TokenSet; nil ends the
// list.
type Token struct {
	Next       *Token
	TotalScore float32
	LmStates   [MaxLM]lm.StateID
	TraceBack  TraceBack
}

// TokenSet is the list of hypotheses alive at one (time, StateHandle)
// location in the search trellis. A nil Head means the set is pruned or
// was never reached.
type TokenSet struct {
	Head      *Token
	BestScore float32
	Time      int
	Handle    StateHandle
}

func (b *BeamSearch) newToken(copyFrom *Token) (*Token, error) {
	p, err := b.tokenArena.Alloc()
	if err != nil {
		return nil, err
	}
	if copyFrom != nil {
		*p = *copyFrom
	}
	return p, nil
}

func (b *BeamSearch) deleteToken(p *Token) {
	b.tokenArena.Free(p)
}

func (b *BeamSearch) findOrAddTokenSet(h StateHandle) int {
	if k, ok := b.frontierMap[h]; ok {
		return k
	}
	k := len(b.frontier)
	b.frontier = append(b.frontier, TokenSet{Time: b.curTime, Handle: h})
	b.frontierMap[h] = k
	return k
}

func (b *BeamSearch) contextEqual(x, y *Token) bool {
	for i := range b.lms {
		if x.LmStates[i] != y.LmStates[i] {
			return false
		}
	}
	return true
}

// tokenPassing extends every token in src across arc, scoring it with
// the acoustic score and every configured LM, then merges the result
// into dst under beam pruning and context recombination: at most
// TokenSetSize tokens survive in any TokenSet, and among tokens sharing
// an LM context only the highest-scoring one survives.
func (b *BeamSearch) tokenPassing(src *TokenSet, arc *fsa.Arc, score float32, dst *TokenSet) (bool, error) {
	changed := false

	for t := src.Head; t != nil; t = t.Next {
		var nt Token
		nt.TotalScore = t.TotalScore + arc.Score + score

		if arc.Olabel == fsa.Eps {
			nt.LmStates = t.LmStates
		} else {
			for i, model := range b.lms {
				lmScore, next := model.GetScore(t.LmStates[i], arc.Olabel)
				nt.TraceBack.LmScores[i] = lmScore
				nt.LmStates[i] = next
				nt.TotalScore += lmScore
			}
			nt.TotalScore -= b.config.InsertionPenalty
		}

		nt.TraceBack.Token = t
		nt.TraceBack.Arc = *arc
		nt.TraceBack.Score = score

		if nt.TotalScore < b.scoreMin {
			continue
		} else if nt.TotalScore > b.scoreMax {
			b.scoreMin += nt.TotalScore - b.scoreMax
			b.scoreMax = nt.TotalScore
		}

		survived := true
		{
			k := 0
			pp := &dst.Head
			for float32(k) < b.config.TokenSetSize && *pp != nil {
				if b.contextEqual(*pp, &nt) {
					if (*pp).TotalScore < nt.TotalScore {
						next := (*pp).Next
						b.deleteToken(*pp)
						*pp = next
						changed = true
					} else {
						survived = false
					}
					break
				}
				k++
				pp = &(*pp).Next
			}
		}

		if survived {
			k := 0
			pp := &dst.Head
			for float32(k) < b.config.TokenSetSize && *pp != nil {
				if (*pp).TotalScore <= nt.TotalScore {
					break
				}
				k++
				pp = &(*pp).Next
			}
			if float32(k) != b.config.TokenSetSize {
				q, err := b.newToken(&nt)
				if err != nil {
					return changed, err
				}
				q.Next = *pp
				*pp = q
				changed = true
				for k, pp = k+1, &q.Next; *pp != nil; k, pp = k+1, &(*pp).Next {
					if float32(k) >= b.config.TokenSetSize {
						for d := *pp; d != nil; {
							next := d.Next
							b.deleteToken(d)
							d = next
						}
						*pp = nil
						break
					}
				}
			}
		}
	}

	if changed {
		dst.BestScore = dst.Head.TotalScore
	}
	return changed, nil
}
