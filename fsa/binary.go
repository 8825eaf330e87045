package fsa

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sio-go/sio/sioerr"
)

// Tags delimiting the binary stream, matching the original Dump/Load's
// ExpectToken/WriteToken calls.
const (
	tagFsm        = "<Fsm>"
	tagNumStates  = "<NumStates>"
	tagNumArcs    = "<NumArcs>"
	tagStartState = "<StartState>"
	tagFinalState = "<FinalState>"
	tagStates     = "<States>"
	tagArcs       = "<Arcs>"
)

// writeTag writes a length-prefixed ASCII token: a little-endian uint16
// length followed by the token's bytes. Fixed width keeps the format
// platform-independent.
func writeTag(w io.Writer, tag string) error {
	if len(tag) > math16Max {
		return sioerr.Newf(sioerr.IoError, "fsa: tag %q too long", tag)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(tag))); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: write tag length")
	}
	if _, err := w.Write([]byte(tag)); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: write tag body")
	}
	return nil
}

const math16Max = 1<<16 - 1

// expectTag reads a length-prefixed ASCII token and checks it equals want.
func expectTag(r io.Reader, want string) error {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read tag length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read tag body")
	}
	if string(buf) != want {
		return sioerr.Newf(sioerr.MalformedGraph, "fsa: expected tag %q, got %q", want, string(buf))
	}
	return nil
}

// Dump writes f to w in the tag-delimited little-endian binary format
// described in §4.B/§6. Dumping an empty graph is a contract violation.
func (f *Fst) Dump(w io.Writer) error {
	sioerr.Check(!f.Empty(), "fsa: Dump on empty graph")

	for _, step := range []func() error{
		func() error { return writeTag(w, tagFsm) },
		func() error { return writeTag(w, tagNumStates) },
		func() error { return binary.Write(w, binary.LittleEndian, f.NumStates) },
		func() error { return writeTag(w, tagNumArcs) },
		func() error { return binary.Write(w, binary.LittleEndian, f.NumArcs) },
		func() error { return writeTag(w, tagStartState) },
		func() error { return binary.Write(w, binary.LittleEndian, f.StartState) },
		func() error { return writeTag(w, tagFinalState) },
		func() error { return binary.Write(w, binary.LittleEndian, f.FinalState) },
		func() error { return writeTag(w, tagStates) },
		func() error { return writeStates(w, f.States) },
		func() error { return writeTag(w, tagArcs) },
		func() error { return writeArcs(w, f.Arcs) },
	} {
		if err := step(); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: dump")
		}
	}
	return nil
}

func writeStates(w io.Writer, states []State) error {
	for _, s := range states {
		if err := binary.Write(w, binary.LittleEndian, s.ArcsOffset); err != nil {
			return err
		}
	}
	return nil
}

func writeArcs(w io.Writer, arcs []Arc) error {
	for _, a := range arcs {
		fields := []any{a.Src, a.Dst, a.Ilabel, a.Olabel, a.Score}
		for _, field := range fields {
			if err := binary.Write(w, binary.LittleEndian, field); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads f from r in the binary format written by Dump. f must be
// Empty; the stream must self-report start_state == 0 and
// final_state == num_states-1 (the K2 single-start/single-final
// convention), else Load fails with MalformedGraph.
func (f *Fst) Load(r io.Reader) error {
	sioerr.Check(f.Empty(), "fsa: Load into non-empty graph")

	if err := expectTag(r, tagFsm); err != nil {
		return err
	}
	if err := expectTag(r, tagNumStates); err != nil {
		return err
	}
	var numStates int64
	if err := binary.Read(r, binary.LittleEndian, &numStates); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read num_states")
	}

	if err := expectTag(r, tagNumArcs); err != nil {
		return err
	}
	var numArcs int64
	if err := binary.Read(r, binary.LittleEndian, &numArcs); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read num_arcs")
	}

	if err := expectTag(r, tagStartState); err != nil {
		return err
	}
	var startState StateID
	if err := binary.Read(r, binary.LittleEndian, &startState); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read start_state")
	}
	if startState != 0 {
		return sioerr.New(sioerr.MalformedGraph, "fsa: start_state must be 0")
	}

	if err := expectTag(r, tagFinalState); err != nil {
		return err
	}
	var finalState StateID
	if err := binary.Read(r, binary.LittleEndian, &finalState); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: read final_state")
	}
	if int64(finalState) != numStates-1 {
		return sioerr.New(sioerr.MalformedGraph, "fsa: final_state must be num_states-1")
	}

	if err := expectTag(r, tagStates); err != nil {
		return err
	}
	states := make([]State, numStates+1)
	for i := range states {
		if err := binary.Read(r, binary.LittleEndian, &states[i].ArcsOffset); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read states")
		}
	}

	if err := expectTag(r, tagArcs); err != nil {
		return err
	}
	arcs := make([]Arc, numArcs)
	for i := range arcs {
		if err := binary.Read(r, binary.LittleEndian, &arcs[i].Src); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read arcs")
		}
		if err := binary.Read(r, binary.LittleEndian, &arcs[i].Dst); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read arcs")
		}
		if err := binary.Read(r, binary.LittleEndian, &arcs[i].Ilabel); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read arcs")
		}
		if err := binary.Read(r, binary.LittleEndian, &arcs[i].Olabel); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read arcs")
		}
		if err := binary.Read(r, binary.LittleEndian, &arcs[i].Score); err != nil {
			return sioerr.Wrap(sioerr.IoError, err, "fsa: read arcs")
		}
	}

	f.NumStates = numStates
	f.NumArcs = numArcs
	f.StartState = startState
	f.FinalState = finalState
	f.States = states
	f.Arcs = arcs
	return nil
}

// DumpBytes is a convenience wrapper returning Dump's output as a slice.
func (f *Fst) DumpBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Dump(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
