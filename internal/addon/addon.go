// Package addon provides post-step transforms applied to one named
// time-series variable after the base step computation.
package addon

import (
	"fmt"

	"tokensim/internal/economy"
	"tokensim/internal/sampler"
)

// NoiseOptions configures a Noise add-on.
type NoiseOptions struct {
	// Variable names the targeted time-series column.
	Variable string

	// Dist and Params define the additive draw.
	Dist   sampler.Kind
	Params sampler.Params
}

// Noise adds an independent draw to the variable each step.
type Noise struct {
	opts NoiseOptions
}

var _ economy.AddOn = (*Noise)(nil)

// NewNoise creates an additive noise add-on.
func NewNoise(opts NoiseOptions) (*Noise, error) {
	if opts.Variable == "" {
		return nil, fmt.Errorf("%w: noise add-on needs a target variable", economy.ErrConfiguration)
	}
	if opts.Dist == "" {
		return nil, fmt.Errorf("%w: noise add-on needs a distribution", economy.ErrConfiguration)
	}
	return &Noise{opts: opts}, nil
}

func (n *Noise) Variable() string { return n.opts.Variable }

func (n *Noise) Apply(value float64, ctx *economy.StepContext) (float64, error) {
	draw, err := ctx.Rand.One(n.opts.Dist, n.opts.Params)
	if err != nil {
		return 0, err
	}
	return value + draw, nil
}

func (n *Noise) Reset() {}

// ProportionalNoiseOptions configures a ProportionalNoise add-on.
type ProportionalNoiseOptions struct {
	// Variable names the targeted time-series column.
	Variable string

	// StdDivisor scales the noise: the draw is zero-mean normal with
	// standard deviation value/StdDivisor. Must be positive.
	StdDivisor float64
}

// ProportionalNoise adds zero-mean noise whose magnitude scales with
// the current value.
type ProportionalNoise struct {
	opts ProportionalNoiseOptions
}

var _ economy.AddOn = (*ProportionalNoise)(nil)

// NewProportionalNoise creates a proportional noise add-on.
func NewProportionalNoise(opts ProportionalNoiseOptions) (*ProportionalNoise, error) {
	if opts.Variable == "" {
		return nil, fmt.Errorf("%w: proportional noise add-on needs a target variable", economy.ErrConfiguration)
	}
	if opts.StdDivisor <= 0 {
		return nil, fmt.Errorf("%w: proportional noise divisor %v", economy.ErrConfiguration, opts.StdDivisor)
	}
	return &ProportionalNoise{opts: opts}, nil
}

func (p *ProportionalNoise) Variable() string { return p.opts.Variable }

func (p *ProportionalNoise) Apply(value float64, ctx *economy.StepContext) (float64, error) {
	scale := value / p.opts.StdDivisor
	if scale < 0 {
		scale = -scale
	}
	draw, err := ctx.Rand.One(sampler.Normal, sampler.Params{"loc": 0, "scale": scale})
	if err != nil {
		return 0, err
	}
	return value + draw, nil
}

func (p *ProportionalNoise) Reset() {}

// RandomReductionOptions configures a RandomReduction add-on.
type RandomReductionOptions struct {
	// Variable names the targeted time-series column.
	Variable string

	// Probability of a reduction occurring at a given step.
	Probability float64

	// MaxReduction is the largest fraction removed when a reduction
	// fires; the actual fraction is uniform in [0, MaxReduction).
	MaxReduction float64
}

// RandomReduction occasionally shaves a random fraction off the
// variable, modeling shocks like sell-offs or outages.
type RandomReduction struct {
	opts RandomReductionOptions
}

var _ economy.AddOn = (*RandomReduction)(nil)

// NewRandomReduction creates a random reduction add-on.
func NewRandomReduction(opts RandomReductionOptions) (*RandomReduction, error) {
	if opts.Variable == "" {
		return nil, fmt.Errorf("%w: random reduction add-on needs a target variable", economy.ErrConfiguration)
	}
	if opts.Probability < 0 || opts.Probability > 1 {
		return nil, fmt.Errorf("%w: reduction probability %v", economy.ErrConfiguration, opts.Probability)
	}
	if opts.MaxReduction < 0 || opts.MaxReduction > 1 {
		return nil, fmt.Errorf("%w: max reduction %v", economy.ErrConfiguration, opts.MaxReduction)
	}
	return &RandomReduction{opts: opts}, nil
}

func (r *RandomReduction) Variable() string { return r.opts.Variable }

func (r *RandomReduction) Apply(value float64, ctx *economy.StepContext) (float64, error) {
	trigger, err := ctx.Rand.One(sampler.Uniform, sampler.Params{"loc": 0, "scale": 1})
	if err != nil {
		return 0, err
	}
	if trigger >= r.opts.Probability {
		return value, nil
	}
	frac, err := ctx.Rand.One(sampler.Uniform, sampler.Params{"loc": 0, "scale": r.opts.MaxReduction})
	if err != nil {
		return 0, err
	}
	return value * (1 - frac), nil
}

func (r *RandomReduction) Reset() {}

// TimedMultiplierOptions configures a TimedMultiplier add-on.
type TimedMultiplierOptions struct {
	// Variable names the targeted time-series column.
	Variable string

	// Start and End bound the active window, inclusive of Start,
	// exclusive of End.
	Start int
	End   int

	// Multiplier is applied inside the window.
	Multiplier float64
}

// TimedMultiplier scales the variable during a fixed step window,
// modeling promotions, unlock events or seasonal effects.
type TimedMultiplier struct {
	opts TimedMultiplierOptions
}

var _ economy.AddOn = (*TimedMultiplier)(nil)

// NewTimedMultiplier creates a timed multiplier add-on.
func NewTimedMultiplier(opts TimedMultiplierOptions) (*TimedMultiplier, error) {
	if opts.Variable == "" {
		return nil, fmt.Errorf("%w: timed multiplier add-on needs a target variable", economy.ErrConfiguration)
	}
	if opts.Start < 0 || opts.End <= opts.Start {
		return nil, fmt.Errorf("%w: multiplier window [%d, %d)", economy.ErrConfiguration, opts.Start, opts.End)
	}
	if opts.Multiplier < 0 {
		return nil, fmt.Errorf("%w: multiplier %v", economy.ErrConfiguration, opts.Multiplier)
	}
	return &TimedMultiplier{opts: opts}, nil
}

func (t *TimedMultiplier) Variable() string { return t.opts.Variable }

func (t *TimedMultiplier) Apply(value float64, ctx *economy.StepContext) (float64, error) {
	if ctx.Step < t.opts.Start || ctx.Step >= t.opts.End {
		return value, nil
	}
	return value * t.opts.Multiplier, nil
}

func (t *TimedMultiplier) Reset() {}
