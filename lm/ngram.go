package lm

import (
	"strings"

	"github.com/sio-go/sio/internal/mathutil"
	"github.com/sio-go/sio/tokenizer"
)

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NGramLM is an ARPA back-off language model adapted to the decoder's
// token-id alphabet: GetScore's (state, token) contract is implemented by
// interning each distinct (order-1)-word history into a StateID, so the
// decoder can recombine tokens that carry the same LM context without the
// LM itself tracking per-token bookkeeping.
//
// Every history GetScore can ever be asked to extend is interned once, by
// internContexts, while LoadARPA is still assembling the model; nothing
// after that point writes to contexts or index. A loaded NGramLM is
// immutable and may be shared by any number of concurrent decoder
// sessions, the same contract PrefixTreeLM gets for free from having no
// state at all.
//
// Grounded on the teacher's language.NGramModel (language/ngram.go); the
// back-off recursion and ARPA parsing are unchanged, only the public
// surface is adapted from word-sequence scoring to the GetScore(state,
// token) shape beam search drives it through.
type NGramLM struct {
	Order int

	unigrams map[string]ngramEntry
	bigrams  map[[2]string]ngramEntry
	trigrams map[[3]string]ngramEntry

	tok tokenizer.Tokenizer

	contexts []([]string)
	index    map[string]StateID
}

// NewNGramLM creates an empty model of the given order (2 for bigram, 3
// for trigram), bound to tok for token-id <-> surface-string rendering.
func NewNGramLM(order int, tok tokenizer.Tokenizer) *NGramLM {
	m := &NGramLM{
		Order:    order,
		unigrams: make(map[string]ngramEntry),
		bigrams:  make(map[[2]string]ngramEntry),
		trigrams: make(map[[3]string]ngramEntry),
		tok:      tok,
		index:    make(map[string]StateID),
	}
	m.contexts = append(m.contexts, nil) // state 0 == NullState == empty history
	m.index[""] = 0
	return m
}

func (m *NGramLM) NullState() StateID { return 0 }

// GetScore renders token to its surface string via the bound tokenizer,
// scores it against the history state carries, and resolves the extended
// history to its pre-interned next state. A pure read: it touches neither
// m.contexts nor m.index, so it may run concurrently across as many
// decoder sessions as share this model.
func (m *NGramLM) GetScore(state StateID, token tokenizer.TokenID) (float32, StateID) {
	word := m.tok.Token(token)
	hist := m.contexts[state]

	score := m.logProb(hist, word)

	next := append(append([]string{}, hist...), word)
	if max := m.Order - 1; max > 0 && len(next) > max {
		next = next[len(next)-max:]
	}
	return float32(score), m.lookup(next)
}

// lookup resolves hist to the StateID internContexts assigned it at load
// time. A history that was never seen as an n-gram context during loading
// (some word composition the ARPA file has no entry for) falls back to
// its longest interned suffix, mirroring the same shortening logProb does
// when back-off data is missing, down to NullState if nothing matches.
func (m *NGramLM) lookup(hist []string) StateID {
	for len(hist) > 0 {
		if id, ok := m.index[strings.Join(hist, "\x00")]; ok {
			return id
		}
		hist = hist[1:]
	}
	return m.NullState()
}

// intern assigns hist a fresh StateID, or returns its existing one. Only
// called while LoadARPA is still assembling the model; calling it after
// load would race with concurrent GetScore readers.
func (m *NGramLM) intern(hist []string) StateID {
	key := strings.Join(hist, "\x00")
	if id, ok := m.index[key]; ok {
		return id
	}
	id := StateID(len(m.contexts))
	m.contexts = append(m.contexts, hist)
	m.index[key] = id
	return id
}

// internContexts pre-computes the StateID for every (order-1)-word
// history this model's n-gram tables give a name to: every unigram word
// (the set of 1-word histories) and, for trigram models, every bigram key
// (the set of 2-word histories). LoadARPA calls this once, after parsing
// finishes, so GetScore never needs to grow m.contexts/m.index itself.
func (m *NGramLM) internContexts() {
	if m.Order >= 2 {
		for w := range m.unigrams {
			m.intern([]string{w})
		}
	}
	if m.Order >= 3 {
		for key := range m.bigrams {
			m.intern([]string{key[0], key[1]})
		}
	}
}

func (m *NGramLM) logProb(history []string, word string) float64 {
	if m.Order >= 3 && len(history) >= 2 {
		key := [3]string{history[len(history)-2], history[len(history)-1], word}
		if e, ok := m.trigrams[key]; ok {
			return e.LogProb
		}
		biKey := [2]string{history[len(history)-2], history[len(history)-1]}
		if e, ok := m.bigrams[biKey]; ok {
			return e.LogBackoff + m.logProbBigram(history[len(history)-1], word)
		}
	}

	if m.Order >= 2 && len(history) >= 1 {
		return m.logProbBigram(history[len(history)-1], word)
	}

	return m.logProbUnigram(word)
}

func (m *NGramLM) logProbBigram(prev, word string) float64 {
	key := [2]string{prev, word}
	if e, ok := m.bigrams[key]; ok {
		return e.LogProb
	}
	if e, ok := m.unigrams[prev]; ok {
		return e.LogBackoff + m.logProbUnigram(word)
	}
	return m.logProbUnigram(word)
}

func (m *NGramLM) logProbUnigram(word string) float64 {
	if e, ok := m.unigrams[word]; ok {
		return e.LogProb
	}
	return mathutil.LogZero
}

// Vocab returns all words in the unigram vocabulary.
func (m *NGramLM) Vocab() []string {
	words := make([]string, 0, len(m.unigrams))
	for w := range m.unigrams {
		words = append(words, w)
	}
	return words
}
