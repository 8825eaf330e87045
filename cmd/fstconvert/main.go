// fstconvert converts a decoding graph between the binary tag-delimited
// wire format and the textual CSV+tab format.
//
// Grounded on the teacher's small stdlib-flag CLIs (cmd/lmtext,
// cmd/lmbuild): a single-purpose tool, no subcommands, flag.Usage
// documents the contract.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sio-go/sio/fsa"
)

func main() {
	from := flag.String("from", "", "input format: binary or text (required)")
	to := flag.String("to", "", "output format: binary or text (required)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fstconvert -from FORMAT -to FORMAT < input > output")
		fmt.Fprintln(os.Stderr, "  Converts a decoding graph between binary and text wire formats.")
		fmt.Fprintln(os.Stderr, "  FORMAT is one of: binary, text")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *from == "" || *to == "" {
		flag.Usage()
		os.Exit(1)
	}

	var g fsa.Fst
	switch *from {
	case "binary":
		if err := g.Load(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "fstconvert: load binary graph: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if err := g.LoadText(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "fstconvert: load text graph: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "fstconvert: unknown -from format %q\n", *from)
		os.Exit(1)
	}

	switch *to {
	case "binary":
		if err := g.Dump(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "fstconvert: dump binary graph: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if err := g.DumpText(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "fstconvert: dump text graph: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "fstconvert: unknown -to format %q\n", *to)
		os.Exit(1)
	}
}
