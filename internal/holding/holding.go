// Package holding provides holding-time models: how long units stay
// held before re-entering circulation. Holding time drives velocity in
// equation-of-exchange pricing.
package holding

import (
	"fmt"

	"tokensim/internal/economy"
	"tokensim/internal/sampler"
)

// Constant returns the same holding time every step.
type Constant struct {
	value float64
}

var _ economy.HoldingTimeModel = (*Constant)(nil)

// NewConstant creates a constant holding-time model. value must be
// positive.
func NewConstant(value float64) (*Constant, error) {
	if value <= 0 {
		return nil, fmt.Errorf("%w: holding time %v must be positive", economy.ErrConfiguration, value)
	}
	return &Constant{value: value}, nil
}

func (c *Constant) HoldingTime(*economy.StepContext) (float64, error) { return c.value, nil }
func (c *Constant) Reset()                                            {}

// StochasticOptions configures a Stochastic model.
type StochasticOptions struct {
	Dist   sampler.Kind
	Params sampler.Params

	// Floor bounds draws from below; defaults to 0.01 when zero.
	Floor float64
}

// Stochastic draws the holding time each step, floored at a positive
// minimum.
type Stochastic struct {
	opts StochasticOptions
}

var _ economy.HoldingTimeModel = (*Stochastic)(nil)

// NewStochastic creates a stochastic holding-time model.
func NewStochastic(opts StochasticOptions) (*Stochastic, error) {
	if opts.Dist == "" {
		return nil, fmt.Errorf("%w: stochastic holding time needs a distribution", economy.ErrConfiguration)
	}
	if opts.Floor < 0 {
		return nil, fmt.Errorf("%w: holding time floor %v", economy.ErrConfiguration, opts.Floor)
	}
	if opts.Floor == 0 {
		opts.Floor = 0.01
	}
	return &Stochastic{opts: opts}, nil
}

func (s *Stochastic) HoldingTime(ctx *economy.StepContext) (float64, error) {
	v, err := ctx.Rand.One(s.opts.Dist, s.opts.Params)
	if err != nil {
		return 0, err
	}
	if v < s.opts.Floor {
		v = s.opts.Floor
	}
	return v, nil
}

func (s *Stochastic) Reset() {}

// AdaptiveOptions configures an Adaptive model.
type AdaptiveOptions struct {
	// Initial is the holding time before the first observed step.
	Initial float64

	// Min and Max bound the adapted value.
	Min float64
	Max float64
}

// Adaptive tracks the effective holding time the economy actually
// realized in the previous step (price x supply over fiat volume),
// bounded into [Min, Max].
type Adaptive struct {
	opts AdaptiveOptions
}

var _ economy.HoldingTimeModel = (*Adaptive)(nil)

// NewAdaptive creates an adaptive holding-time model.
func NewAdaptive(opts AdaptiveOptions) (*Adaptive, error) {
	if opts.Initial <= 0 {
		return nil, fmt.Errorf("%w: initial holding time %v must be positive", economy.ErrConfiguration, opts.Initial)
	}
	if opts.Min <= 0 || opts.Max < opts.Min {
		return nil, fmt.Errorf("%w: holding time bounds [%v, %v]", economy.ErrConfiguration, opts.Min, opts.Max)
	}
	return &Adaptive{opts: opts}, nil
}

func (a *Adaptive) HoldingTime(ctx *economy.StepContext) (float64, error) {
	v, ok := ctx.Hist.Last("effective_holding_time")
	if !ok {
		v = a.opts.Initial
	}
	if v < a.opts.Min {
		v = a.opts.Min
	}
	if v > a.opts.Max {
		v = a.opts.Max
	}
	return v, nil
}

func (a *Adaptive) Reset() {}
