// Package usergrowth provides the user-count models attachable to an
// agent pool: constant, data-driven, precomputed saturation curves and
// stochastic growth.
package usergrowth

import (
	"fmt"

	"tokensim/internal/economy"
	"tokensim/internal/pool"
	"tokensim/internal/sampler"
	"tokensim/internal/spaces"
)

// Curve selects the shape of a Spaced growth schedule.
type Curve string

const (
	CurveLinear   Curve = "linear"
	CurveLog      Curve = "log"
	CurveLogistic Curve = "logistic"
)

// Constant keeps the user count fixed at Value.
type Constant struct {
	value float64
}

var _ pool.UserGrowth = (*Constant)(nil)

// NewConstant creates a constant user count model.
func NewConstant(value float64) (*Constant, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: constant user count %v", economy.ErrConfiguration, value)
	}
	return &Constant{value: value}, nil
}

func (c *Constant) Users(*economy.StepContext) (float64, error) { return c.value, nil }
func (c *Constant) Reset()                                      {}

// FromData replays a fixed per-step user-count series. The series must
// cover every planned step.
type FromData struct {
	data []float64
}

var _ pool.UserGrowth = (*FromData)(nil)

// NewFromData creates a data-driven user count model.
func NewFromData(data []float64) (*FromData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty user count series", economy.ErrConfiguration)
	}
	for i, v := range data {
		if v < 0 {
			return nil, fmt.Errorf("%w: user count %v at step %d", economy.ErrConfiguration, v, i)
		}
	}
	out := make([]float64, len(data))
	copy(out, data)
	return &FromData{data: out}, nil
}

func (f *FromData) Users(ctx *economy.StepContext) (float64, error) {
	if ctx.Step >= len(f.data) {
		return 0, fmt.Errorf("%w: user count series has %d steps, step %d requested",
			economy.ErrConfiguration, len(f.data), ctx.Step)
	}
	return f.data[ctx.Step], nil
}

func (f *FromData) Reset() {}

// SpacedOptions configures a Spaced model.
type SpacedOptions struct {
	// Initial is the user count at step 0.
	Initial float64

	// Max is the user count the curve saturates toward.
	Max float64

	// Shape selects the curve. Defaults to linear.
	Shape Curve

	// NoiseScale, when > 0, adds zero-mean normal noise with this
	// standard deviation to every step's count. Draws are fresh per
	// repetition.
	NoiseScale float64
}

// Spaced follows a precomputed growth curve from Initial to Max over
// the planned iterations, with optional per-step noise.
type Spaced struct {
	opts  SpacedOptions
	curve []float64
}

var _ pool.UserGrowth = (*Spaced)(nil)

// NewSpaced creates a scheduled growth model.
func NewSpaced(opts SpacedOptions) (*Spaced, error) {
	if opts.Initial < 0 || opts.Max < opts.Initial {
		return nil, fmt.Errorf("%w: spaced growth from %v to %v", economy.ErrConfiguration, opts.Initial, opts.Max)
	}
	if opts.Shape == "" {
		opts.Shape = CurveLinear
	}
	switch opts.Shape {
	case CurveLinear, CurveLog, CurveLogistic:
	default:
		return nil, fmt.Errorf("%w: spaced growth shape %q", economy.ErrConfiguration, opts.Shape)
	}
	return &Spaced{opts: opts}, nil
}

func (s *Spaced) Users(ctx *economy.StepContext) (float64, error) {
	if s.curve == nil {
		var err error
		switch s.opts.Shape {
		case CurveLog:
			s.curve, err = spaces.LogSaturated(s.opts.Initial, s.opts.Max, ctx.Iterations)
		case CurveLogistic:
			s.curve, err = spaces.Logistic(s.opts.Initial, s.opts.Max, ctx.Iterations)
		default:
			s.curve, err = spaces.Linear(s.opts.Initial, s.opts.Max, ctx.Iterations)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", economy.ErrConfiguration, err)
		}
	}
	if ctx.Step >= len(s.curve) {
		return 0, fmt.Errorf("%w: growth curve has %d steps, step %d requested",
			economy.ErrConfiguration, len(s.curve), ctx.Step)
	}
	users := s.curve[ctx.Step]
	if s.opts.NoiseScale > 0 {
		noise, err := ctx.Rand.One(sampler.Normal, sampler.Params{"loc": 0, "scale": s.opts.NoiseScale})
		if err != nil {
			return 0, err
		}
		users += noise
	}
	return users, nil
}

func (s *Spaced) Reset() { s.curve = nil }

// StochasticOptions configures a Stochastic model.
type StochasticOptions struct {
	// Dist and Params define the per-step draw.
	Dist   sampler.Kind
	Params sampler.Params

	// Additive accumulates draws into a running count instead of
	// treating each draw as the absolute count.
	Additive bool

	// Initial seeds the running count in additive mode.
	Initial float64
}

// Stochastic draws the user count (or its per-step change) from a
// distribution.
type Stochastic struct {
	opts    StochasticOptions
	current float64
}

var _ pool.UserGrowth = (*Stochastic)(nil)

// NewStochastic creates a stochastic growth model.
func NewStochastic(opts StochasticOptions) (*Stochastic, error) {
	if opts.Dist == "" {
		return nil, fmt.Errorf("%w: stochastic growth needs a distribution", economy.ErrConfiguration)
	}
	if opts.Initial < 0 {
		return nil, fmt.Errorf("%w: initial user count %v", economy.ErrConfiguration, opts.Initial)
	}
	return &Stochastic{opts: opts, current: opts.Initial}, nil
}

func (s *Stochastic) Users(ctx *economy.StepContext) (float64, error) {
	draw, err := ctx.Rand.One(s.opts.Dist, s.opts.Params)
	if err != nil {
		return 0, err
	}
	if s.opts.Additive {
		s.current += draw
		if s.current < 0 {
			s.current = 0
		}
		return s.current, nil
	}
	return draw, nil
}

func (s *Stochastic) Reset() { s.current = s.opts.Initial }
