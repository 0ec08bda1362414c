// Package sampler provides the seeded stochastic draw source injected
// into every model that needs randomness. All draws flow through one
// Sampler per repetition so a run is reproducible from its seed.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Sampler errors
var (
	ErrUnknownDistribution = errors.New("unknown distribution kind")
	ErrInvalidParams       = errors.New("invalid distribution parameters")
)

// Kind identifies a supported distribution family.
type Kind string

const (
	Normal    Kind = "normal"
	LogNormal Kind = "lognormal"
	Uniform   Kind = "uniform"
	Poisson   Kind = "poisson"
	Binomial  Kind = "binomial"
)

// Params carries distribution parameters by name:
//
//	normal:    loc, scale
//	lognormal: mu, sigma
//	uniform:   loc, scale (draws from [loc, loc+scale))
//	poisson:   mu
//	binomial:  n, p
type Params map[string]float64

// Sampler draws values from named distributions. Implementations are
// deterministic given their seed; they are not safe for concurrent use,
// each repetition owns its own instance.
type Sampler interface {
	// Sample draws count values from the distribution.
	Sample(kind Kind, params Params, count int) ([]float64, error)

	// One draws a single value.
	One(kind Kind, params Params) (float64, error)
}

// DeriveSeed returns the sub-seed for one repetition of a run seeded
// with base. Distinct repetitions get distinct, reproducible streams.
func DeriveSeed(base int64, repetition int) int64 {
	return base ^ int64(repetition)
}

// Rand is a Sampler backed by a seeded math/rand source.
type Rand struct {
	rng *rand.Rand
}

var _ Sampler = (*Rand)(nil)

// New creates a Sampler seeded with seed.
func New(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws count values from the distribution.
func (r *Rand) Sample(kind Kind, params Params, count int) ([]float64, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidParams, count)
	}
	out := make([]float64, count)
	for i := range out {
		v, err := r.One(kind, params)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// One draws a single value.
func (r *Rand) One(kind Kind, params Params) (float64, error) {
	switch kind {
	case Normal:
		return params["loc"] + params["scale"]*r.rng.NormFloat64(), nil
	case LogNormal:
		sigma := params["sigma"]
		if sigma < 0 {
			return 0, fmt.Errorf("%w: lognormal sigma %v", ErrInvalidParams, sigma)
		}
		return math.Exp(params["mu"] + sigma*r.rng.NormFloat64()), nil
	case Uniform:
		return params["loc"] + params["scale"]*r.rng.Float64(), nil
	case Poisson:
		mu := params["mu"]
		if mu < 0 {
			return 0, fmt.Errorf("%w: poisson mu %v", ErrInvalidParams, mu)
		}
		return r.poisson(mu), nil
	case Binomial:
		n := params["n"]
		p := params["p"]
		if n < 0 || p < 0 || p > 1 {
			return 0, fmt.Errorf("%w: binomial n=%v p=%v", ErrInvalidParams, n, p)
		}
		return r.binomial(int(n), p), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDistribution, kind)
	}
}

// poisson draws by Knuth's method for small means and falls back to a
// rounded normal approximation for large ones, where exp(-mu) underflows.
func (r *Rand) poisson(mu float64) float64 {
	if mu == 0 {
		return 0
	}
	if mu > 30 {
		v := math.Round(mu + math.Sqrt(mu)*r.rng.NormFloat64())
		if v < 0 {
			return 0
		}
		return v
	}
	limit := math.Exp(-mu)
	k := 0
	p := 1.0
	for {
		p *= r.rng.Float64()
		if p <= limit {
			return float64(k)
		}
		k++
	}
}

// binomial sums Bernoulli trials up to a cutoff, then switches to the
// normal approximation clamped into [0, n].
func (r *Rand) binomial(n int, p float64) float64 {
	if n == 0 || p == 0 {
		return 0
	}
	if p == 1 {
		return float64(n)
	}
	if n <= 1000 {
		k := 0
		for i := 0; i < n; i++ {
			if r.rng.Float64() < p {
				k++
			}
		}
		return float64(k)
	}
	mean := float64(n) * p
	sd := math.Sqrt(mean * (1 - p))
	v := math.Round(mean + sd*r.rng.NormFloat64())
	if v < 0 {
		return 0
	}
	if v > float64(n) {
		return float64(n)
	}
	return v
}
