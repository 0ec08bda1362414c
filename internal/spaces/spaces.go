// Package spaces generates the deterministic step sequences used by
// scheduled user growth and vesting: linear ramps and saturating curves
// that start at a floor and flatten out near a ceiling.
package spaces

import (
	"errors"
	"math"
)

// ErrInvalidLength indicates a requested sequence length < 1.
var ErrInvalidLength = errors.New("sequence length must be >= 1")

// Linear returns num points evenly spaced from start to stop inclusive.
func Linear(start, stop float64, num int) ([]float64, error) {
	if num < 1 {
		return nil, ErrInvalidLength
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out, nil
	}
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[num-1] = stop
	return out, nil
}

// LogSaturated returns num points from start to stop following a
// logarithmic curve: fast early growth that saturates toward stop.
func LogSaturated(start, stop float64, num int) ([]float64, error) {
	base, err := Linear(1, 10, num)
	if err != nil {
		return nil, err
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out, nil
	}
	maxLog := math.Log(10)
	for i, v := range base {
		out[i] = start + math.Log(v)/maxLog*(stop-start)
	}
	return out, nil
}

// Logistic returns num points from start to stop along a sigmoid:
// slow start, rapid middle growth, saturation at the end. The sigmoid
// is evaluated on [-5, 5] and rescaled so the endpoints hit start and
// stop exactly.
func Logistic(start, stop float64, num int) ([]float64, error) {
	xs, err := Linear(-5, 5, num)
	if err != nil {
		return nil, err
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out, nil
	}
	raw := make([]float64, num)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, x := range xs {
		raw[i] = 1 / (1 + math.Exp(-x))
		if raw[i] < lo {
			lo = raw[i]
		}
		if raw[i] > hi {
			hi = raw[i]
		}
	}
	for i, v := range raw {
		out[i] = start + (v-lo)/(hi-lo)*(stop-start)
	}
	return out, nil
}
