// Package supply provides supply controllers: mint/burn mechanisms
// applied each step against the running supply. Burn is negative,
// mint is positive; the economy clamps the result at zero.
package supply

import (
	"fmt"

	"tokensim/internal/economy"
)

// Style selects how a controller's parameter is interpreted.
type Style string

const (
	// StylePerc treats the parameter as a fraction of current supply.
	StylePerc Style = "perc"

	// StyleFixed treats the parameter as an absolute amount per step.
	StyleFixed Style = "fixed"
)

// BurnOptions configures a Burn controller.
type BurnOptions struct {
	// Param is the burn rate (perc) or amount (fixed). Must be >= 0.
	Param float64

	// Style selects the interpretation of Param.
	Style Style

	// SelfDestruct makes the controller fire exactly once per run.
	SelfDestruct bool
}

// Burn removes supply each step.
type Burn struct {
	opts  BurnOptions
	fired bool
}

var _ economy.SupplyController = (*Burn)(nil)

// NewBurn creates a burn controller.
func NewBurn(opts BurnOptions) (*Burn, error) {
	if opts.Param < 0 {
		return nil, fmt.Errorf("%w: burn parameter %v", economy.ErrConfiguration, opts.Param)
	}
	switch opts.Style {
	case StylePerc, StyleFixed:
	default:
		return nil, fmt.Errorf("%w: burn style %q", economy.ErrConfiguration, opts.Style)
	}
	return &Burn{opts: opts}, nil
}

func (b *Burn) Delta(ctx *economy.StepContext) (float64, error) {
	if b.opts.SelfDestruct && b.fired {
		return 0, nil
	}
	b.fired = true
	if b.opts.Style == StylePerc {
		return -b.opts.Param * ctx.Supply, nil
	}
	return -b.opts.Param, nil
}

func (b *Burn) Reset() { b.fired = false }

// MintOptions configures a Mint controller.
type MintOptions struct {
	// Param is the mint rate (perc) or amount (fixed). Must be >= 0.
	Param float64

	// Style selects the interpretation of Param.
	Style Style
}

// Mint adds supply each step.
type Mint struct {
	opts MintOptions
}

var _ economy.SupplyController = (*Mint)(nil)

// NewMint creates a mint controller.
func NewMint(opts MintOptions) (*Mint, error) {
	if opts.Param < 0 {
		return nil, fmt.Errorf("%w: mint parameter %v", economy.ErrConfiguration, opts.Param)
	}
	switch opts.Style {
	case StylePerc, StyleFixed:
	default:
		return nil, fmt.Errorf("%w: mint style %q", economy.ErrConfiguration, opts.Style)
	}
	return &Mint{opts: opts}, nil
}

func (m *Mint) Delta(ctx *economy.StepContext) (float64, error) {
	if m.opts.Style == StylePerc {
		return m.opts.Param * ctx.Supply, nil
	}
	return m.opts.Param, nil
}

func (m *Mint) Reset() {}

// OneShot mints a fixed amount at the first step and nothing after.
type OneShot struct {
	amount float64
	fired  bool
}

var _ economy.SupplyController = (*OneShot)(nil)

// NewOneShot creates a one-time mint controller.
func NewOneShot(amount float64) (*OneShot, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: one-shot amount %v", economy.ErrConfiguration, amount)
	}
	return &OneShot{amount: amount}, nil
}

func (o *OneShot) Delta(*economy.StepContext) (float64, error) {
	if o.fired {
		return 0, nil
	}
	o.fired = true
	return o.amount, nil
}

func (o *OneShot) Reset() { o.fired = false }

// FromData replays a fixed per-step signed delta series. The series
// must cover every planned step.
type FromData struct {
	deltas []float64
}

var _ economy.SupplyController = (*FromData)(nil)

// NewFromData creates a data-driven supply controller.
func NewFromData(deltas []float64) (*FromData, error) {
	if len(deltas) == 0 {
		return nil, fmt.Errorf("%w: empty supply delta series", economy.ErrConfiguration)
	}
	out := make([]float64, len(deltas))
	copy(out, deltas)
	return &FromData{deltas: out}, nil
}

func (f *FromData) Delta(ctx *economy.StepContext) (float64, error) {
	if ctx.Step >= len(f.deltas) {
		return 0, fmt.Errorf("%w: supply delta series has %d steps, step %d requested",
			economy.ErrConfiguration, len(f.deltas), ctx.Step)
	}
	return f.deltas[ctx.Step], nil
}

func (f *FromData) Reset() {}

// CliffVestingOptions configures a CliffVesting controller.
type CliffVestingOptions struct {
	// Total is the amount released across the vesting window.
	Total float64

	// CliffSteps is the number of steps with no release.
	CliffSteps int

	// VestingSteps is the number of steps the release is spread over
	// after the cliff.
	VestingSteps int
}

// CliffVesting releases nothing until the cliff, then mints
// Total/VestingSteps per step for the vesting window.
type CliffVesting struct {
	opts CliffVestingOptions
}

var _ economy.SupplyController = (*CliffVesting)(nil)

// NewCliffVesting creates a cliff-vesting controller.
func NewCliffVesting(opts CliffVestingOptions) (*CliffVesting, error) {
	if opts.Total < 0 {
		return nil, fmt.Errorf("%w: vesting total %v", economy.ErrConfiguration, opts.Total)
	}
	if opts.CliffSteps < 0 || opts.VestingSteps <= 0 {
		return nil, fmt.Errorf("%w: vesting window cliff=%d steps=%d",
			economy.ErrConfiguration, opts.CliffSteps, opts.VestingSteps)
	}
	return &CliffVesting{opts: opts}, nil
}

func (c *CliffVesting) Delta(ctx *economy.StepContext) (float64, error) {
	if ctx.Step < c.opts.CliffSteps {
		return 0, nil
	}
	if ctx.Step >= c.opts.CliffSteps+c.opts.VestingSteps {
		return 0, nil
	}
	return c.opts.Total / float64(c.opts.VestingSteps), nil
}

func (c *CliffVesting) Reset() {}

// DumperOptions configures a Dumper controller.
type DumperOptions struct {
	// Amount is released at each dump.
	Amount float64

	// Start is the first step a dump occurs.
	Start int

	// Spacing is the number of steps between dumps. Must be >= 1.
	Spacing int

	// Dumps caps the number of releases; 0 means unlimited.
	Dumps int
}

// Dumper models an investor unlocking tranches on a fixed cadence:
// Amount enters circulation every Spacing steps from Start.
type Dumper struct {
	opts DumperOptions
	done int
}

var _ economy.SupplyController = (*Dumper)(nil)

// NewDumper creates a spaced-dump controller.
func NewDumper(opts DumperOptions) (*Dumper, error) {
	if opts.Amount < 0 {
		return nil, fmt.Errorf("%w: dump amount %v", economy.ErrConfiguration, opts.Amount)
	}
	if opts.Start < 0 || opts.Spacing < 1 || opts.Dumps < 0 {
		return nil, fmt.Errorf("%w: dump schedule start=%d spacing=%d dumps=%d",
			economy.ErrConfiguration, opts.Start, opts.Spacing, opts.Dumps)
	}
	return &Dumper{opts: opts}, nil
}

func (d *Dumper) Delta(ctx *economy.StepContext) (float64, error) {
	if ctx.Step < d.opts.Start {
		return 0, nil
	}
	if d.opts.Dumps > 0 && d.done >= d.opts.Dumps {
		return 0, nil
	}
	if (ctx.Step-d.opts.Start)%d.opts.Spacing != 0 {
		return 0, nil
	}
	d.done++
	return d.opts.Amount, nil
}

func (d *Dumper) Reset() { d.done = 0 }
