package fsa

import (
	"sort"

	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/tokenizer"
)

// BuildTokenTopology populates f as the token topology graph T derived
// from tok: one start state with a blank self-loop, one state per
// ordinary token (entering/self-loop/leaving arcs), and a final state
// reached only by the reserved InputEnd label emitting Eos.
//
// Grounded on sio::Fsm::BuildTokenTopology (finite_state_machine.h).
func (f *Fst) BuildTokenTopology(tok tokenizer.Tokenizer) error {
	sioerr.Check(f.Empty(), "fsa: BuildTokenTopology on non-empty graph")
	if tok.Size() == 0 {
		return sioerr.New(sioerr.InvalidArgument, "fsa: BuildTokenTopology with empty tokenizer")
	}

	var arcs []Arc
	addArc := func(src, dst StateID, ilabel, olabel Label) {
		arcs = append(arcs, Arc{Src: src, Dst: dst, Ilabel: ilabel, Olabel: olabel, Score: 0})
	}

	startState := StateID(0)
	addArc(startState, startState, tok.Blk(), Eps)

	curState := StateID(1)
	for t := 0; t != tok.Size(); t++ {
		tid := tokenizer.TokenID(t)
		if tid == tok.Blk() || tid == tok.Unk() || tid == tok.Bos() || tid == tok.Eos() {
			continue
		}
		addArc(startState, curState, tid, tid)
		addArc(curState, curState, tid, Eps)
		addArc(curState, startState, Eps, Eps)
		curState++
	}

	finalState := curState
	addArc(startState, finalState, InputEnd, tok.Eos())

	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].Src != arcs[j].Src {
			return arcs[i].Src < arcs[j].Src
		}
		return arcs[i].Ilabel < arcs[j].Ilabel
	})

	numStates := int64(finalState) + 1
	f.NumStates = numStates
	f.NumArcs = int64(len(arcs))
	f.StartState = startState
	f.FinalState = finalState
	f.Arcs = arcs
	f.States = buildStatesFromArcs(int(numStates), arcs)
	return nil
}
