// Package allocator implements a typed slab pool: a bump allocator that
// carves fixed-size records out of bulk-allocated slabs and recycles freed
// records through a free list, amortizing the per-record allocation cost
// of the decoder's per-frame token churn.
//
// Grounded on the teacher's decoder/viterbi.go tokenPool (bump-allocate,
// grow by doubling, reset without per-record destruction), generalized
// to the arbitrary record type and explicit free-list recycling the
// beam-search decoder's token arena needs (tokens are freed individually
// during context recombination, not just reset wholesale at frame end).
package allocator

import "github.com/sio-go/sio/sioerr"

// Slab is a pool of *T records. Records are plain data; nothing here runs
// a constructor or destructor on them beyond zeroing on first carve.
// A Slab is not safe for concurrent use — one decoder session owns one
// Slab, matching the single-threaded-per-session resource model.
type Slab[T any] struct {
	slabSize int
	slabs    [][]T
	next     int // next free index within slabs[len(slabs)-1]

	free []*T // recycled records, most-recently-freed first

	numUsed int

	// MaxSlabs bounds total capacity when non-zero. Exceeding it is the
	// Go analogue of a fixed arena's out-of-memory condition, since Go's
	// runtime allocator itself cannot be made to fail deterministically.
	maxSlabs int
}

// New creates a Slab with the given per-slab capacity (records per bulk
// allocation). maxSlabs bounds the total number of slabs ever carved; 0
// means unbounded.
func New[T any](slabSize, maxSlabs int) *Slab[T] {
	if slabSize <= 0 {
		slabSize = 4096
	}
	return &Slab[T]{slabSize: slabSize, maxSlabs: maxSlabs}
}

// Alloc returns a pointer to a zeroed T, reusing a freed record if one is
// available, else carving a fresh one from the current slab (growing by
// appending a new slab when the current one is exhausted).
func (s *Slab[T]) Alloc() (*T, error) {
	if n := len(s.free); n > 0 {
		p := s.free[n-1]
		s.free = s.free[:n-1]
		var zero T
		*p = zero
		s.numUsed++
		return p, nil
	}

	if len(s.slabs) == 0 || s.next >= len(s.slabs[len(s.slabs)-1]) {
		if s.maxSlabs > 0 && len(s.slabs) >= s.maxSlabs {
			return nil, sioerr.New(sioerr.BadAllocation, "slab allocator: max slabs exhausted")
		}
		s.slabs = append(s.slabs, make([]T, s.slabSize))
		s.next = 0
	}

	cur := s.slabs[len(s.slabs)-1]
	p := &cur[s.next]
	s.next++
	s.numUsed++
	return p, nil
}

// Free returns a record to the pool. The caller must not dereference p
// after calling Free; its memory may be handed back out by a later Alloc.
func (s *Slab[T]) Free(p *T) {
	s.free = append(s.free, p)
	s.numUsed--
}

// Clear drops every slab and resets all counters. No per-record
// destruction runs — records are plain-old-data. Pointers previously
// handed out by Alloc must not be dereferenced after Clear.
func (s *Slab[T]) Clear() {
	s.slabs = nil
	s.free = nil
	s.next = 0
	s.numUsed = 0
}

// NumUsed reports the number of currently-live (allocated, not yet freed)
// records, for accounting and the deinit-leaves-zero invariant.
func (s *Slab[T]) NumUsed() int {
	return s.numUsed
}
