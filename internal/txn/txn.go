// Package txn provides the transaction-volume models attachable to an
// agent pool.
package txn

import (
	"fmt"

	"tokensim/internal/economy"
	"tokensim/internal/pool"
	"tokensim/internal/sampler"
	"tokensim/internal/spaces"
)

// Constant produces Value per user per step.
type Constant struct {
	value float64

	// total switches to a fixed total per step, ignoring users.
	total bool
}

var _ pool.TransactionModel = (*Constant)(nil)

// NewConstant creates a per-user constant volume model.
func NewConstant(value float64) (*Constant, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: constant transaction value %v", economy.ErrConfiguration, value)
	}
	return &Constant{value: value}, nil
}

// NewConstantTotal creates a fixed per-step total volume model.
func NewConstantTotal(value float64) (*Constant, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: constant transaction total %v", economy.ErrConfiguration, value)
	}
	return &Constant{value: value, total: true}, nil
}

func (c *Constant) Volume(_ *economy.StepContext, users float64) (float64, error) {
	if c.total {
		return c.value, nil
	}
	return c.value * users, nil
}

func (c *Constant) Reset() {}

// FromData replays a fixed per-step total volume series.
type FromData struct {
	data []float64
}

var _ pool.TransactionModel = (*FromData)(nil)

// NewFromData creates a data-driven volume model.
func NewFromData(data []float64) (*FromData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty transaction series", economy.ErrConfiguration)
	}
	out := make([]float64, len(data))
	copy(out, data)
	return &FromData{data: out}, nil
}

func (f *FromData) Volume(ctx *economy.StepContext, _ float64) (float64, error) {
	if ctx.Step >= len(f.data) {
		return 0, fmt.Errorf("%w: transaction series has %d steps, step %d requested",
			economy.ErrConfiguration, len(f.data), ctx.Step)
	}
	return f.data[ctx.Step], nil
}

func (f *FromData) Reset() {}

// TrendOptions configures a Trend model.
type TrendOptions struct {
	// AvgStart and AvgEnd bound the per-user average volume, which
	// follows Shape across the planned iterations.
	AvgStart float64
	AvgEnd   float64

	// Shape selects the curve; defaults to linear. Accepts the same
	// shapes as scheduled user growth.
	Shape string

	// NoiseScale, when > 0, adds zero-mean normal noise to the
	// per-user average each step.
	NoiseScale float64
}

// Trend scales a per-user average volume along a precomputed curve.
type Trend struct {
	opts  TrendOptions
	curve []float64
}

var _ pool.TransactionModel = (*Trend)(nil)

// NewTrend creates a trending volume model.
func NewTrend(opts TrendOptions) (*Trend, error) {
	if opts.AvgStart < 0 || opts.AvgEnd < 0 {
		return nil, fmt.Errorf("%w: trend averages %v..%v", economy.ErrConfiguration, opts.AvgStart, opts.AvgEnd)
	}
	switch opts.Shape {
	case "", "linear", "log", "logistic":
	default:
		return nil, fmt.Errorf("%w: trend shape %q", economy.ErrConfiguration, opts.Shape)
	}
	return &Trend{opts: opts}, nil
}

func (t *Trend) Volume(ctx *economy.StepContext, users float64) (float64, error) {
	if t.curve == nil {
		var err error
		switch t.opts.Shape {
		case "log":
			t.curve, err = spaces.LogSaturated(t.opts.AvgStart, t.opts.AvgEnd, ctx.Iterations)
		case "logistic":
			t.curve, err = spaces.Logistic(t.opts.AvgStart, t.opts.AvgEnd, ctx.Iterations)
		default:
			t.curve, err = spaces.Linear(t.opts.AvgStart, t.opts.AvgEnd, ctx.Iterations)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", economy.ErrConfiguration, err)
		}
	}
	if ctx.Step >= len(t.curve) {
		return 0, fmt.Errorf("%w: trend curve has %d steps, step %d requested",
			economy.ErrConfiguration, len(t.curve), ctx.Step)
	}
	avg := t.curve[ctx.Step]
	if t.opts.NoiseScale > 0 {
		noise, err := ctx.Rand.One(sampler.Normal, sampler.Params{"loc": 0, "scale": t.opts.NoiseScale})
		if err != nil {
			return 0, err
		}
		avg += noise
		if avg < 0 {
			avg = 0
		}
	}
	return avg * users, nil
}

func (t *Trend) Reset() { t.curve = nil }

// StochasticOptions configures a Stochastic model.
type StochasticOptions struct {
	// ActivityRate is the probability a user transacts this step.
	// Active users are drawn binomially from the pool's count.
	ActivityRate float64

	// ValueDist and ValueParams define the per-active-user volume draw.
	ValueDist   sampler.Kind
	ValueParams sampler.Params
}

// Stochastic draws the number of active users and a per-user value
// each step.
type Stochastic struct {
	opts StochasticOptions
}

var _ pool.TransactionModel = (*Stochastic)(nil)

// NewStochastic creates a stochastic volume model.
func NewStochastic(opts StochasticOptions) (*Stochastic, error) {
	if opts.ActivityRate < 0 || opts.ActivityRate > 1 {
		return nil, fmt.Errorf("%w: activity rate %v", economy.ErrConfiguration, opts.ActivityRate)
	}
	if opts.ValueDist == "" {
		return nil, fmt.Errorf("%w: stochastic transactions need a value distribution", economy.ErrConfiguration)
	}
	return &Stochastic{opts: opts}, nil
}

func (s *Stochastic) Volume(ctx *economy.StepContext, users float64) (float64, error) {
	active, err := ctx.Rand.One(sampler.Binomial, sampler.Params{"n": users, "p": s.opts.ActivityRate})
	if err != nil {
		return 0, err
	}
	value, err := ctx.Rand.One(s.opts.ValueDist, s.opts.ValueParams)
	if err != nil {
		return 0, err
	}
	vol := active * value
	if vol < 0 {
		vol = 0
	}
	return vol, nil
}

func (s *Stochastic) Reset() {}

// MarketcapStochasticOptions configures a MarketcapStochastic model.
type MarketcapStochasticOptions struct {
	// TurnoverDist and TurnoverParams define the sampled fraction of
	// the current market cap transacted per step.
	TurnoverDist   sampler.Kind
	TurnoverParams sampler.Params
}

// MarketcapStochastic ties volume to the current market cap: each step
// a turnover fraction is drawn and applied to price x supply.
type MarketcapStochastic struct {
	opts MarketcapStochasticOptions
}

var _ pool.TransactionModel = (*MarketcapStochastic)(nil)

// NewMarketcapStochastic creates a market-cap-driven volume model.
func NewMarketcapStochastic(opts MarketcapStochasticOptions) (*MarketcapStochastic, error) {
	if opts.TurnoverDist == "" {
		return nil, fmt.Errorf("%w: marketcap transactions need a turnover distribution", economy.ErrConfiguration)
	}
	return &MarketcapStochastic{opts: opts}, nil
}

func (m *MarketcapStochastic) Volume(ctx *economy.StepContext, _ float64) (float64, error) {
	turnover, err := ctx.Rand.One(m.opts.TurnoverDist, m.opts.TurnoverParams)
	if err != nil {
		return 0, err
	}
	vol := turnover * ctx.Price * ctx.Supply
	if vol < 0 {
		vol = 0
	}
	return vol, nil
}

func (m *MarketcapStochastic) Reset() {}
