// Package economy implements the single-run token economy: a state
// container composed from agent pools, supply controllers, a price
// function, a holding-time model and add-ons, advanced one step at a
// time while recording every variable into a history table.
package economy

import (
	"fmt"
	"log"
	"math"

	"tokensim/internal/domain"
	"tokensim/internal/history"
	"tokensim/internal/sampler"
)

// epsVolume keeps effective holding time finite when a step has no
// fiat volume.
const epsVolume = 1e-9

// Config holds the static configuration of a TokenEconomy.
type Config struct {
	// Token identifies the simulated token. Required.
	Token string

	// Fiat labels the fiat denomination. Defaults to "$".
	Fiat string

	// Unit is the duration of one step. Defaults to day.
	Unit domain.UnitOfTime

	// InitialPrice is the price before the first step. Required, >= 0.
	InitialPrice float64

	// InitialSupply is the circulating supply before the first step.
	// Ignored when SupplySchedule is set.
	InitialSupply float64

	// SupplySchedule, when set, provides the per-step baseline supply.
	// Its length must equal the planned iteration count.
	SupplySchedule []float64

	// MintBurn enables the attached supply controllers. When false,
	// controllers are registered but never applied.
	MintBurn bool

	// PriceFn computes the per-step price. Required before stepping.
	PriceFn PriceFunction

	// HoldingTime produces the per-step holding time. When nil a
	// constant holding time of 1 unit is assumed.
	HoldingTime HoldingTimeModel

	// Verbose enables progress logging.
	Verbose bool
}

// TokenEconomy is the single-run state container and stepper.
type TokenEconomy struct {
	cfg Config

	pools       []AgentPool
	controllers []SupplyController
	addons      []AddOn

	hist *history.Table
	rnd  sampler.Sampler

	step        int
	iterations  int
	price       float64
	supply      float64
	holdingTime float64

	clampEvents int
}

// New creates a TokenEconomy from cfg. Pools, controllers and add-ons
// are attached afterwards via the Add methods.
func New(cfg Config) (*TokenEconomy, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: token identifier is required", ErrConfiguration)
	}
	if cfg.InitialPrice < 0 || !isFinite(cfg.InitialPrice) {
		return nil, fmt.Errorf("%w: initial price %v", ErrConfiguration, cfg.InitialPrice)
	}
	if cfg.InitialSupply < 0 || !isFinite(cfg.InitialSupply) {
		return nil, fmt.Errorf("%w: initial supply %v", ErrConfiguration, cfg.InitialSupply)
	}
	for i, s := range cfg.SupplySchedule {
		if s < 0 || !isFinite(s) {
			return nil, fmt.Errorf("%w: supply schedule value %v at step %d", ErrConfiguration, s, i)
		}
	}
	if cfg.Fiat == "" {
		cfg.Fiat = "$"
	}
	if cfg.Unit == "" {
		cfg.Unit = domain.UnitDay
	}
	if !cfg.Unit.Valid() {
		return nil, fmt.Errorf("%w: unit of time %q", ErrConfiguration, cfg.Unit)
	}

	return &TokenEconomy{
		cfg:         cfg,
		hist:        history.NewTable(),
		price:       cfg.InitialPrice,
		supply:      cfg.InitialSupply,
		holdingTime: 1,
	}, nil
}

// AddPool registers an agent pool. Pools step in registration order.
func (e *TokenEconomy) AddPool(p AgentPool) {
	e.pools = append(e.pools, p)
}

// AddController registers a supply controller. Controllers apply in
// registration order, each seeing the previous one's adjustment.
func (e *TokenEconomy) AddController(c SupplyController) {
	e.controllers = append(e.controllers, c)
}

// AddAddOn registers a post-step transform. Add-ons apply in
// registration order.
func (e *TokenEconomy) AddAddOn(a AddOn) {
	e.addons = append(e.addons, a)
}

// Validate checks the wiring against a planned iteration count. It
// must pass before the first Step of a run.
func (e *TokenEconomy) Validate(iterations int) error {
	if e.cfg.PriceFn == nil {
		return fmt.Errorf("%w: no price function attached", ErrConfiguration)
	}
	if e.cfg.SupplySchedule != nil && len(e.cfg.SupplySchedule) != iterations {
		return fmt.Errorf("%w: supply schedule length %d does not match planned iterations %d",
			ErrConfiguration, len(e.cfg.SupplySchedule), iterations)
	}
	seen := make(map[string]bool, len(e.pools))
	for _, p := range e.pools {
		if seen[p.Label()] {
			return fmt.Errorf("%w: duplicate pool label %q", ErrConfiguration, p.Label())
		}
		seen[p.Label()] = true
	}
	return nil
}

// Reset restores the economy to its initial state for a fresh
// repetition of iterations steps, drawing randomness from rnd. Static
// wiring is preserved; all sub-components are reset.
func (e *TokenEconomy) Reset(iterations int, rnd sampler.Sampler) {
	e.step = 0
	e.iterations = iterations
	e.rnd = rnd
	e.price = e.cfg.InitialPrice
	e.supply = e.cfg.InitialSupply
	if e.cfg.SupplySchedule != nil {
		e.supply = e.cfg.SupplySchedule[0]
	}
	e.holdingTime = 1
	e.clampEvents = 0
	e.hist.Reset()

	for _, p := range e.pools {
		p.Reset()
	}
	for _, c := range e.controllers {
		c.Reset()
	}
	for _, a := range e.addons {
		a.Reset()
	}
	if e.cfg.PriceFn != nil {
		e.cfg.PriceFn.Reset()
	}
	if e.cfg.HoldingTime != nil {
		e.cfg.HoldingTime.Reset()
	}
}

// Step advances the economy by one time step, mutating the history.
//
// Order is fixed: holding time, agent pools, volume aggregation,
// supply baseline and controllers, clamp, price, add-ons.
func (e *TokenEconomy) Step() error {
	if e.step >= e.iterations {
		return fmt.Errorf("%w: step %d beyond planned %d iterations", ErrConfiguration, e.step, e.iterations)
	}

	ctx := &StepContext{
		Step:        e.step,
		Iterations:  e.iterations,
		Price:       e.price,
		Supply:      e.supply,
		HoldingTime: e.holdingTime,
		Rand:        e.rnd,
		Hist:        e.hist,
	}

	// 1. Holding time feeds velocity-adjusted models downstream.
	ht := 1.0
	if e.cfg.HoldingTime != nil {
		var err error
		ht, err = e.cfg.HoldingTime.HoldingTime(ctx)
		if err != nil {
			return err
		}
	}
	if !isFinite(ht) {
		return fmt.Errorf("%w: holding time %v at step %d", ErrNumerical, ht, e.step)
	}
	e.holdingTime = ht
	ctx.HoldingTime = ht

	// 2. Agent pools advance in registration order; volumes aggregate
	// into the step's demand-side signal.
	for _, p := range e.pools {
		if err := p.Step(ctx); err != nil {
			return err
		}
		vol := p.Volume()
		if vol < 0 {
			vol = 0
		}
		switch p.Currency() {
		case CurrencyToken:
			ctx.TokenVolume += vol
			ctx.FiatVolume += vol * e.price
		default:
			ctx.FiatVolume += vol
			if e.price > 0 {
				ctx.TokenVolume += vol / e.price
			}
		}
		e.hist.Append(p.Label()+"_users", p.Users())
		e.hist.Append(p.Label()+"_transactions", vol)
	}
	e.hist.Append("transactions_fiat", ctx.FiatVolume)
	e.hist.Append("transactions_token", ctx.TokenVolume)

	// 3. Supply: schedule baseline, then controllers in registration
	// order, each against the running value.
	supply := e.supply
	if e.cfg.SupplySchedule != nil {
		supply = e.cfg.SupplySchedule[e.step]
	}
	if e.cfg.MintBurn {
		for _, c := range e.controllers {
			ctx.Supply = supply
			delta, err := c.Delta(ctx)
			if err != nil {
				return err
			}
			supply += delta
			if supply < 0 {
				e.clampEvents++
				e.log("supply clamped to zero at step %d (delta %v)", e.step, delta)
				supply = 0
			}
		}
	}
	if !isFinite(supply) {
		return fmt.Errorf("%w: supply %v at step %d", ErrNumerical, supply, e.step)
	}
	e.supply = supply
	ctx.Supply = supply
	e.hist.Append(e.SupplyVar(), supply)
	e.hist.Append("holding_time", ht)

	// 4. Price sees everything recorded through the supply update.
	price, err := e.cfg.PriceFn.Compute(e.hist, ctx)
	if err != nil {
		return err
	}
	if !isFinite(price) {
		return fmt.Errorf("%w: price %v at step %d", ErrNumerical, price, e.step)
	}
	if price < 0 {
		e.clampEvents++
		e.log("price clamped to zero at step %d (%v)", e.step, price)
		price = 0
	}
	e.price = price
	ctx.Price = price
	e.hist.Append(e.PriceVar(), price)
	e.hist.Append("effective_holding_time", price*supply/(ctx.FiatVolume+epsVolume))

	// 5. Add-ons mutate the authoritative record in registration order.
	for _, a := range e.addons {
		name := a.Variable()
		cur, ok := e.hist.Last(name)
		if !ok {
			return fmt.Errorf("%w: add-on targets unknown variable %q", ErrConfiguration, name)
		}
		next, err := a.Apply(cur, ctx)
		if err != nil {
			return err
		}
		if !isFinite(next) {
			return fmt.Errorf("%w: add-on on %q produced %v at step %d", ErrNumerical, name, next, e.step)
		}
		if next < 0 && (name == e.PriceVar() || name == e.SupplyVar()) {
			e.clampEvents++
			next = 0
		}
		e.hist.SetLast(name, next)
		switch name {
		case e.PriceVar():
			e.price = next
			ctx.Price = next
		case e.SupplyVar():
			e.supply = next
			ctx.Supply = next
		}
	}

	e.step++
	return nil
}

// PriceVar is the history column name of the token price.
func (e *TokenEconomy) PriceVar() string { return e.cfg.Token + "_price" }

// SupplyVar is the history column name of the token supply.
func (e *TokenEconomy) SupplyVar() string { return e.cfg.Token + "_supply" }

// Token returns the configured token identifier.
func (e *TokenEconomy) Token() string { return e.cfg.Token }

// Unit returns the configured unit of time.
func (e *TokenEconomy) Unit() domain.UnitOfTime { return e.cfg.Unit }

// StepIndex returns the number of completed steps in the current run.
func (e *TokenEconomy) StepIndex() int { return e.step }

// Price returns the price after the last completed step.
func (e *TokenEconomy) Price() float64 { return e.price }

// Supply returns the supply after the last completed step.
func (e *TokenEconomy) Supply() float64 { return e.supply }

// ClampEvents counts the times price or supply had to be floored at
// zero during the current run.
func (e *TokenEconomy) ClampEvents() int { return e.clampEvents }

// History exposes the recorded time series of the current run.
func (e *TokenEconomy) History() history.View { return e.hist }

func (e *TokenEconomy) log(format string, args ...any) {
	if e.cfg.Verbose {
		log.Printf("[economy] "+format, args...)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
