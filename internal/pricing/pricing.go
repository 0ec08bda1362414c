// Package pricing provides price functions: strategies mapping the
// economy's accumulated history to the current step's price.
package pricing

import (
	"fmt"
	"math"

	"tokensim/internal/economy"
	"tokensim/internal/history"
)

// Velocity regression coefficients: velocity estimated from holding
// time as v = a + b/H.
const (
	velocityIntercept = 0.03358
	velocitySlope     = 1.20329
)

// EOEOptions configures an EOE price function.
type EOEOptions struct {
	// Smoothing blends the new price with the previous one:
	// price = Smoothing*new + (1-Smoothing)*previous. Must be in
	// (0, 1]; 1 means no smoothing.
	Smoothing float64

	// VelocityRegression estimates velocity from holding time via the
	// fitted regression instead of the raw 1/H.
	VelocityRegression bool
}

// EOE prices by the equation of exchange: fiat transaction volume over
// supply times velocity, where velocity comes from holding time.
type EOE struct {
	opts EOEOptions
	prev float64
	init bool
}

var _ economy.PriceFunction = (*EOE)(nil)

// NewEOE creates an equation-of-exchange price function.
func NewEOE(opts EOEOptions) (*EOE, error) {
	if opts.Smoothing <= 0 || opts.Smoothing > 1 {
		return nil, fmt.Errorf("%w: smoothing %v must be in (0, 1]", economy.ErrConfiguration, opts.Smoothing)
	}
	return &EOE{opts: opts}, nil
}

func (e *EOE) Compute(_ history.View, ctx *economy.StepContext) (float64, error) {
	if !e.init {
		e.prev = ctx.Price
		e.init = true
	}

	velocity := 1.0 / ctx.HoldingTime
	if e.opts.VelocityRegression {
		velocity = velocityIntercept + velocitySlope/ctx.HoldingTime
	}

	price := e.prev
	if ctx.Supply > 0 && velocity > 0 {
		price = ctx.FiatVolume / (ctx.Supply * velocity)
	}

	price = e.opts.Smoothing*price + (1-e.opts.Smoothing)*e.prev
	e.prev = price
	return price, nil
}

func (e *EOE) Reset() {
	e.prev = 0
	e.init = false
}

// BondingCurveOptions configures a BondingCurve price function.
type BondingCurveOptions struct {
	// Intercept is the price at zero supply.
	Intercept float64

	// Coefficient scales the supply term.
	Coefficient float64

	// Exponent shapes the curve; 1 gives a linear curve.
	Exponent float64

	// MaxSupply caps the supply fed into the curve; 0 means uncapped.
	MaxSupply float64
}

// BondingCurve prices purely from supply: price = intercept +
// coefficient * supply^exponent.
type BondingCurve struct {
	opts BondingCurveOptions
}

var _ economy.PriceFunction = (*BondingCurve)(nil)

// NewBondingCurve creates a bonding-curve price function.
func NewBondingCurve(opts BondingCurveOptions) (*BondingCurve, error) {
	if opts.Intercept < 0 {
		return nil, fmt.Errorf("%w: bonding curve intercept %v", economy.ErrConfiguration, opts.Intercept)
	}
	if opts.Exponent == 0 {
		return nil, fmt.Errorf("%w: bonding curve exponent must be non-zero", economy.ErrConfiguration)
	}
	if opts.MaxSupply < 0 {
		return nil, fmt.Errorf("%w: bonding curve max supply %v", economy.ErrConfiguration, opts.MaxSupply)
	}
	return &BondingCurve{opts: opts}, nil
}

func (b *BondingCurve) Compute(_ history.View, ctx *economy.StepContext) (float64, error) {
	supply := ctx.Supply
	if b.opts.MaxSupply > 0 && supply > b.opts.MaxSupply {
		supply = b.opts.MaxSupply
	}
	return b.opts.Intercept + b.opts.Coefficient*math.Pow(supply, b.opts.Exponent), nil
}

func (b *BondingCurve) Reset() {}

// TrendOptions configures a Trend price function.
type TrendOptions struct {
	// Anchor is the price at step 0.
	Anchor float64

	// GrowthRate is the per-step log-price increment.
	GrowthRate float64

	// TopAppreciation caps the price at Anchor*TopAppreciation;
	// 0 means uncapped.
	TopAppreciation float64
}

// Trend follows a fitted log-price trajectory anchored at the initial
// price, capped at a configured top appreciation.
type Trend struct {
	opts TrendOptions
}

var _ economy.PriceFunction = (*Trend)(nil)

// NewTrend creates a log-trend price function.
func NewTrend(opts TrendOptions) (*Trend, error) {
	if opts.Anchor <= 0 {
		return nil, fmt.Errorf("%w: trend anchor %v must be positive", economy.ErrConfiguration, opts.Anchor)
	}
	if opts.TopAppreciation < 0 {
		return nil, fmt.Errorf("%w: top appreciation %v", economy.ErrConfiguration, opts.TopAppreciation)
	}
	return &Trend{opts: opts}, nil
}

func (t *Trend) Compute(_ history.View, ctx *economy.StepContext) (float64, error) {
	price := t.opts.Anchor * math.Exp(t.opts.GrowthRate*float64(ctx.Step))
	if t.opts.TopAppreciation > 0 {
		ceiling := t.opts.Anchor * t.opts.TopAppreciation
		if price > ceiling {
			price = ceiling
		}
	}
	return price, nil
}

func (t *Trend) Reset() {}
