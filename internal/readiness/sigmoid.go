// Package readiness implements the Readiness Scorer (§4.4): five weighted
// components compose a 0-100 score against a subject's personal rolling
// baseline, with availability-based re-normalization and a categorical
// band.
package readiness

import "math"

// sigmoidSteepness matches the source's "steepness factor ≈1.5."
const sigmoidSteepness = 1.5

// sigmoidScore maps a z-score to [0,1] via a logistic curve. By
// construction sigmoidScore(0) == 0.5 exactly (testable property 9, §8).
func sigmoidScore(z float64) float64 {
	return 1 / (1 + math.Exp(-sigmoidSteepness*z))
}

// zScore computes (value-mean)/std, handling the zero-variance edge case:
// when std is zero and value equals mean, z is exactly zero (so the
// sigmoid still yields exactly 0.5); otherwise a zero-variance baseline
// with a differing value is treated as a large deviation in the
// appropriate direction rather than dividing by zero.
func zScore(value, mean, std float64) float64 {
	if std <= 0 {
		switch {
		case value == mean:
			return 0
		case value > mean:
			return 10
		default:
			return -10
		}
	}
	return (value - mean) / std
}

func meanAndStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / n)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
