package audio

// SpeedPerturb resamples samples by factor via linear interpolation. The
// sample rate label is unchanged; only the sample count and apparent pitch
// move. factor > 1.0 speeds up (shorter, higher pitch); factor < 1.0 slows
// down (longer, lower pitch). Returns nil for an empty input or a
// non-positive factor.
func SpeedPerturb(samples []float64, factor float64) []float64 {
	if len(samples) == 0 || factor <= 0 {
		return nil
	}

	origLen := len(samples)
	newLen := int(float64(origLen) / factor)
	if newLen == 0 {
		return nil
	}

	out := make([]float64, newLen)
	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * factor
		lo := int(srcPos)
		frac := srcPos - float64(lo)

		if lo+1 < origLen {
			out[i] = samples[lo]*(1.0-frac) + samples[lo+1]*frac
		} else if lo < origLen {
			out[i] = samples[lo]
		}
	}

	return out
}

// DefaultAugmentFactors returns the conventional speed-perturbation
// factors: the unperturbed rate plus one slower and one faster variant,
// the 3-way split commonly used for speed-perturbed ASR training data.
func DefaultAugmentFactors() []float64 {
	return []float64{0.9, 1.0, 1.1}
}

// PerturbedVariants applies SpeedPerturb with each of factors to samples,
// returning one result slice per factor in the same order. A factor that
// SpeedPerturb rejects (<=0, or too aggressive for samples' length)
// contributes a nil entry rather than shortening the result.
func PerturbedVariants(samples []float64, factors []float64) [][]float64 {
	variants := make([][]float64, len(factors))
	for i, f := range factors {
		if f == 1.0 {
			cp := make([]float64, len(samples))
			copy(cp, samples)
			variants[i] = cp
			continue
		}
		variants[i] = SpeedPerturb(samples, f)
	}
	return variants
}
