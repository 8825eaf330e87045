package fsa

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sio-go/sio/sioerr"
)

// LoadText reads f from the line-oriented textual format:
//
//	num_states, num_arcs, start_state, final_state
//	src\tdst\tilabel[:olabel]/score
//	...
//
// f must be Empty. Arcs are accumulated, then sorted by (src, ilabel) and
// the states[].ArcsOffset prefix sum is rebuilt from the out-degree
// histogram, exactly as the binary format requires on disk.
func (f *Fst) LoadText(r io.Reader) error {
	sioerr.Check(f.Empty(), "fsa: LoadText into non-empty graph")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !scanner.Scan() {
		return sioerr.New(sioerr.MalformedGraph, "fsa: missing header line")
	}
	header := splitFields(scanner.Text(), ",")
	if len(header) != 4 {
		return sioerr.Newf(sioerr.MalformedGraph, "fsa: header needs 4 fields, got %d", len(header))
	}
	numStates, err := strconv.ParseInt(header[0], 10, 64)
	if err != nil {
		return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse num_states")
	}
	numArcs, err := strconv.ParseInt(header[1], 10, 64)
	if err != nil {
		return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse num_arcs")
	}
	startState, err := strconv.ParseInt(header[2], 10, 32)
	if err != nil {
		return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse start_state")
	}
	finalState, err := strconv.ParseInt(header[3], 10, 32)
	if err != nil {
		return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse final_state")
	}
	if startState != 0 {
		return sioerr.New(sioerr.MalformedGraph, "fsa: start_state must be 0")
	}
	if finalState != numStates-1 {
		return sioerr.New(sioerr.MalformedGraph, "fsa: final_state must be num_states-1")
	}

	var arcs []Arc
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := splitFields(line, " \t")
		if len(cols) != 3 {
			return sioerr.Newf(sioerr.MalformedGraph, "fsa: arc line %q needs 3 fields, got %d", line, len(cols))
		}

		arcInfo := strings.Split(cols[2], "/")
		if len(arcInfo) != 2 {
			return sioerr.Newf(sioerr.MalformedGraph, "fsa: arc-info %q needs 2 fields", cols[2])
		}

		labels := strings.Split(arcInfo[0], ":")
		if len(labels) != 1 && len(labels) != 2 {
			return sioerr.Newf(sioerr.MalformedGraph, "fsa: label spec %q needs 1 or 2 fields", arcInfo[0])
		}

		src, err := strconv.ParseInt(cols[0], 10, 32)
		if err != nil {
			return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse arc src")
		}
		dst, err := strconv.ParseInt(cols[1], 10, 32)
		if err != nil {
			return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse arc dst")
		}
		ilabel, err := strconv.ParseInt(labels[0], 10, 32)
		if err != nil {
			return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse ilabel")
		}
		olabel := ilabel
		if len(labels) == 2 {
			olabel, err = strconv.ParseInt(labels[1], 10, 32)
			if err != nil {
				return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse olabel")
			}
		}
		score, err := strconv.ParseFloat(arcInfo[1], 32)
		if err != nil {
			return sioerr.Wrap(sioerr.MalformedGraph, err, "fsa: parse score")
		}

		arcs = append(arcs, Arc{
			Src:    StateID(src),
			Dst:    StateID(dst),
			Ilabel: Label(ilabel),
			Olabel: Label(olabel),
			Score:  Score(score),
		})
	}
	if err := scanner.Err(); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: scan text graph")
	}
	if int64(len(arcs)) != numArcs {
		return sioerr.Newf(sioerr.MalformedGraph, "fsa: header declares %d arcs, found %d", numArcs, len(arcs))
	}

	sortArcsBySrcIlabel(arcs)

	f.NumStates = numStates
	f.NumArcs = numArcs
	f.StartState = StateID(startState)
	f.FinalState = StateID(finalState)
	f.Arcs = arcs
	f.States = buildStatesFromArcs(int(numStates), arcs)
	return nil
}

// DumpText writes f in the textual format LoadText reads.
func (f *Fst) DumpText(w io.Writer) error {
	sioerr.Check(!f.Empty(), "fsa: DumpText on empty graph")
	if _, err := fmt.Fprintf(w, "%d,%d,%d,%d\n", f.NumStates, f.NumArcs, f.StartState, f.FinalState); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "fsa: write header")
	}
	for s := StateID(0); int64(s) < f.NumStates; s++ {
		it := f.ArcIterator(s)
		for !it.Done() {
			a := it.Value()
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d:%d/%g\n", a.Src, a.Dst, a.Ilabel, a.Olabel, a.Score); err != nil {
				return sioerr.Wrap(sioerr.IoError, err, "fsa: write arc")
			}
			it.Next()
		}
	}
	return nil
}

// splitFields splits s on any of the runes in cutset, discarding empty
// fields (so repeated or mixed separators like ", " or " \t" collapse).
func splitFields(s, cutset string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(cutset, r)
	})
	return fields
}

func sortArcsBySrcIlabel(arcs []Arc) {
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].Src != arcs[j].Src {
			return arcs[i].Src < arcs[j].Src
		}
		return arcs[i].Ilabel < arcs[j].Ilabel
	})
}

// buildStatesFromArcs rebuilds the CSR offset table from arcs already
// sorted by (src, ilabel), via an out-degree histogram prefix sum.
func buildStatesFromArcs(numStates int, arcs []Arc) []State {
	outDegree := make([]int32, numStates)
	for _, a := range arcs {
		outDegree[a.Src]++
	}
	states := make([]State, numStates+1)
	var n int32
	for s := 0; s < numStates; s++ {
		states[s].ArcsOffset = n
		n += outDegree[s]
	}
	states[numStates].ArcsOffset = n
	return states
}
