package economy

import (
	"tokensim/internal/history"
	"tokensim/internal/sampler"
)

// Currency is the denomination of an agent pool's transaction volume.
type Currency string

const (
	CurrencyFiat  Currency = "fiat"
	CurrencyToken Currency = "token"
)

// StepContext is the snapshot handed to every sub-model during one
// step. Price, Supply and HoldingTime reflect the state at the moment
// the model runs: pools see the previous step's price, supply
// controllers see the running supply including earlier controllers'
// deltas in the same step.
type StepContext struct {
	Step        int
	Iterations  int
	Price       float64
	Supply      float64
	HoldingTime float64
	FiatVolume  float64
	TokenVolume float64

	// Rand is the repetition's draw source.
	Rand sampler.Sampler

	// Hist exposes all variables recorded in prior steps.
	Hist history.View
}

// AgentPool owns one cohort's user-count dynamics and its transaction
// volume. Its counters advance exactly once per economy step.
type AgentPool interface {
	// Label identifies the cohort; must be unique within an economy.
	Label() string

	// Currency reports the denomination of Volume.
	Currency() Currency

	// Step advances the cohort by one time step.
	Step(ctx *StepContext) error

	// Users returns the active-user count after the last Step.
	Users() float64

	// Volume returns the last Step's transaction volume.
	Volume() float64

	// Reset restores the pool to its initial configured state.
	Reset()
}

// SupplyController computes one mint/burn mechanism's per-step delta.
// Burn is negative, mint is positive.
type SupplyController interface {
	// Delta returns the signed supply change for this step, computed
	// against ctx.Supply (the running value, not a stale cache).
	Delta(ctx *StepContext) (float64, error)

	// Reset restores the controller to its initial configured state.
	Reset()
}

// PriceFunction maps the accumulated state history to the current
// step's price.
type PriceFunction interface {
	// Compute returns the new price given all variables recorded so
	// far, including the current step's supply and volumes.
	Compute(hist history.View, ctx *StepContext) (float64, error)

	// Reset restores internal state (smoothing memory, noise history).
	Reset()
}

// HoldingTimeModel produces the per-step holding time feeding
// velocity calculations.
type HoldingTimeModel interface {
	HoldingTime(ctx *StepContext) (float64, error)
	Reset()
}

// AddOn transforms one named variable after the base step. Add-ons
// run in registration order; each output feeds the next add-on
// targeting the same variable.
type AddOn interface {
	// Variable names the time-series column the add-on mutates.
	Variable() string

	// Apply returns the transformed value.
	Apply(value float64, ctx *StepContext) (float64, error)

	// Reset restores internal state (timers, counters).
	Reset()
}
