// Package stats provides the summary statistics used when aggregating
// simulation repetitions: mean, sample stddev, and interpolated percentiles.
package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
func Stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Summary holds the per-slice statistics reported for each step of a
// variable across repetitions.
type Summary struct {
	Mean   float64
	Median float64
	Stddev float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
}

// Summarize computes all summary statistics for values in one pass.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Mean:   Mean(values),
		Median: Percentile(sorted, 0.50),
		Stddev: Stddev(values),
		P10:    Percentile(sorted, 0.10),
		P90:    Percentile(sorted, 0.90),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}
