// Package mathutil holds the small numeric helpers (rounding, clamping)
// shared by every scoring-adjacent stage of the pipeline, so that the
// "round to two decimals, clamp to [0,100]" rule is implemented exactly
// once.
package mathutil

import "math"

// Round rounds x to the given number of decimal places using
// round-half-away-from-zero, matching the rounding every score and
// centrality value in the report is subject to.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	if x < 0 {
		return math.Ceil(x*p-0.5) / p
	}
	return math.Floor(x*p+0.5) / p
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the population variance of xs, or 0 for an empty slice.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
