package lm

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sio-go/sio/internal/mathutil"
	"github.com/sio-go/sio/sioerr"
	"github.com/sio-go/sio/tokenizer"
)

// LoadARPA reads a language model in ARPA format, returning an NGramLM
// bound to tok. Log probabilities in ARPA files are base-10; they are
// converted to natural log. Before returning, it interns every history
// context the file's own n-gram entries name (see internContexts), so the
// returned model is immutable and safe to share across decoder sessions.
//
// Grounded on the teacher's language.LoadARPA (language/arpa.go),
// unchanged apart from constructing an NGramLM instead of the bare
// NGramModel.
func LoadARPA(r io.Reader, tok tokenizer.Tokenizer) (*NGramLM, error) {
	scanner := bufio.NewScanner(r)
	model := NewNGramLM(1, tok)

	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "\\data\\" {
			break
		}
	}

	maxOrder := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ngram ") {
			parts := strings.SplitN(line[6:], "=", 2)
			if len(parts) == 2 {
				order, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
				if order > maxOrder {
					maxOrder = order
				}
			}
			continue
		}
		break
	}
	model.Order = maxOrder

	for {
		line := strings.TrimSpace(scanner.Text())

		if line == "\\end\\" {
			break
		}

		if strings.HasPrefix(line, "\\") && strings.HasSuffix(line, ":") {
			orderStr := strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:")
			order, err := strconv.Atoi(orderStr)
			if err != nil {
				if !scanner.Scan() {
					break
				}
				continue
			}

			for scanner.Scan() {
				entry := strings.TrimSpace(scanner.Text())
				if entry == "" {
					continue
				}
				if strings.HasPrefix(entry, "\\") {
					break
				}
				if err := parseNGramLine(model, order, entry); err != nil {
					return nil, sioerr.Wrapf(sioerr.MalformedGraph, err, "lm: parse n-gram line %q", entry)
				}
			}
			continue
		}

		if !scanner.Scan() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, sioerr.Wrap(sioerr.IoError, err, "lm: scan ARPA file")
	}

	model.internContexts()
	return model, nil
}

func parseNGramLine(model *NGramLM, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return sioerr.Newf(sioerr.MalformedGraph, "too few fields for %d-gram: %q", order, line)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return sioerr.Wrap(sioerr.MalformedGraph, err, "lm: parse log prob")
	}
	logProb *= math.Ln10

	words := fields[1 : order+1]

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return sioerr.Wrap(sioerr.MalformedGraph, err, "lm: parse backoff")
		}
		logBackoff = bo * math.Ln10
	}

	entry := ngramEntry{LogProb: logProb, LogBackoff: logBackoff}

	// A well-formed ARPA file names each n-gram once; if a duplicate
	// line shows up anyway, treat it as independent evidence for the
	// same context and pool the probabilities in log space rather than
	// letting the later line silently clobber the earlier one.
	switch order {
	case 1:
		key := words[0]
		if prior, ok := model.unigrams[key]; ok {
			entry.LogProb = mathutil.LogAdd(prior.LogProb, entry.LogProb)
		}
		model.unigrams[key] = entry
	case 2:
		key := [2]string{words[0], words[1]}
		if prior, ok := model.bigrams[key]; ok {
			entry.LogProb = mathutil.LogAdd(prior.LogProb, entry.LogProb)
		}
		model.bigrams[key] = entry
	case 3:
		key := [3]string{words[0], words[1], words[2]}
		if prior, ok := model.trigrams[key]; ok {
			entry.LogProb = mathutil.LogAdd(prior.LogProb, entry.LogProb)
		}
		model.trigrams[key] = entry
	}

	return nil
}
