// Package fsa implements the immutable arc-sorted weighted finite-state
// transducer (FST) that backs the decoding graph: its in-memory layout,
// binary and text codecs, and the token-topology (T) constructor that
// derives a graph from a subword tokenizer.
//
// Grounded on the original sio::Fsm (finite_state_machine.h): one start
// state, one final state, a CSR-style states/arcs layout with a sentinel
// state, arcs sorted by (src, ilabel) so "does state s have an epsilon
// arc" is an O(1) probe.
package fsa

import (
	"math"

	"github.com/sio-go/sio/sioerr"
)

// StateID indexes a state in the graph's state table.
type StateID = int32

// ArcID indexes an arc in the graph's arc table.
type ArcID = int32

// Label is a transducer label. EPS and InputEnd are reserved values drawn
// from the same alphabet as ordinary token ids.
type Label = int32

// Score is the log-domain arc weight; higher is better.
type Score = float32

const (
	// Eps is epsilon: the smallest representable label, so that any
	// epsilon arc of a state sorts first among its out-arcs.
	Eps Label = math.MinInt32

	// InputEnd marks the end-of-input arc, following the K2 convention.
	InputEnd Label = -1
)

// State is one entry in the graph's CSR-style state table: the offset
// into Arcs where this state's out-arcs begin. The table carries one
// extra sentinel entry past the last real state so that a state's arc
// range is always states[s].ArcsOffset .. states[s+1].ArcsOffset.
type State struct {
	ArcsOffset ArcID
}

// Arc is one transition: consume Ilabel, emit Olabel, pay Score, and move
// from Src to Dst.
type Arc struct {
	Src    StateID
	Dst    StateID
	Ilabel Label
	Olabel Label
	Score  Score
}

// Fst is an immutable directed multigraph with integer-typed states and
// arcs. The zero value is the Empty graph that Load/LoadText/
// BuildTokenTopology populate exactly once.
type Fst struct {
	NumStates int64
	NumArcs   int64

	StartState StateID
	FinalState StateID

	// States has NumStates+1 entries; the last is the sentinel.
	States []State
	Arcs   []Arc
}

// Empty reports whether the graph has not yet been populated.
func (f *Fst) Empty() bool {
	return len(f.States) == 0
}

// ContainsEpsilonArc reports whether state s's first out-arc is epsilon.
// Valid only because arcs are sorted by ilabel ascending and Eps is the
// smallest label in the alphabet.
func (f *Fst) ContainsEpsilonArc(s StateID) bool {
	off := f.States[s].ArcsOffset
	next := f.States[s+1].ArcsOffset
	if off >= next {
		return false
	}
	return f.Arcs[off].Ilabel == Eps
}

// ArcIterator yields the out-arcs of one state in stored order.
type ArcIterator struct {
	arcs []Arc
	pos  int
	end  int
}

// Value returns the arc at the iterator's current position. Calling it
// when Done is true is a contract violation.
func (it *ArcIterator) Value() *Arc { return &it.arcs[it.pos] }

// Next advances the iterator by one arc.
func (it *ArcIterator) Next() { it.pos++ }

// Done reports whether the iterator has been exhausted.
func (it *ArcIterator) Done() bool { return it.pos >= it.end }

// ArcIterator returns an iterator over state s's out-arcs. Accessing the
// sentinel state (index NumStates) is forbidden, matching the original's
// SIO_CHECK_NE guard.
func (f *Fst) ArcIterator(s StateID) ArcIterator {
	sioerr.Check(!f.Empty(), "fsa: ArcIterator on empty graph")
	sioerr.Check(int(s) != len(f.States)-1, "fsa: ArcIterator on sentinel state")
	off := f.States[s].ArcsOffset
	next := f.States[s+1].ArcsOffset
	return ArcIterator{arcs: f.Arcs, pos: int(off), end: int(next)}
}
