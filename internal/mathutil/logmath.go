// Package mathutil provides numerically stable log-domain arithmetic
// for the lm package, which carries every probability as a natural-log
// score to avoid underflow on long utterances.
package mathutil

import "math"

// LogZero represents log(0): the score of an event with zero probability
// mass. lm.NGramLM returns it as the score of a word with no unigram
// entry.
const LogZero = -1e30

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way,
// without ever computing exp(a) or exp(b) directly (both may be far
// below float64's exponent range). lm.LoadARPA uses it to pool the
// probability mass of duplicate n-gram entries for the same context
// instead of letting one silently overwrite the other.
// Uses threshold-based early exit to skip expensive exp/log1p when the
// smaller value contributes less than float64 precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a > b {
		if b == LogZero {
			return a
		}
		d := b - a
		if d < -36.0 {
			return a
		}
		return a + math.Log1p(math.Exp(d))
	}
	if a == LogZero {
		return b
	}
	d := a - b
	if d < -36.0 {
		return b
	}
	return b + math.Log1p(math.Exp(d))
}

// LogSub returns log(exp(a) - exp(b)), assuming a > b. This is the
// inverse of LogAdd: given a context's total probability mass and the
// mass already assigned to explicit entries, it recovers the leftover
// mass a Katz-style back-off would redistribute over unseen words.
func LogSub(a, b float64) float64 {
	if b == LogZero {
		return a
	}
	if a <= b {
		return LogZero
	}
	return a + math.Log1p(-math.Exp(b-a))
}
