// Package pool implements the agent pool: one cohort's user-count
// dynamics paired with a transaction model producing that cohort's
// per-step volume.
package pool

import (
	"fmt"

	"tokensim/internal/economy"
)

// UserGrowth produces the cohort's active-user count for each step.
type UserGrowth interface {
	Users(ctx *economy.StepContext) (float64, error)
	Reset()
}

// TransactionModel produces the cohort's transaction volume for each
// step given its active-user count.
type TransactionModel interface {
	Volume(ctx *economy.StepContext, users float64) (float64, error)
	Reset()
}

// Options configures a Pool.
type Options struct {
	// Label identifies the cohort; used as the time-series key prefix.
	Label string

	// Currency is the denomination of the pool's volume. Defaults to
	// fiat.
	Currency economy.Currency

	// Growth drives the user count. Required.
	Growth UserGrowth

	// Transactions drives the volume. Required.
	Transactions TransactionModel
}

// Pool is one cohort. It advances exactly once per economy step.
type Pool struct {
	opts   Options
	users  float64
	volume float64
}

var _ economy.AgentPool = (*Pool)(nil)

// New creates a Pool.
func New(opts Options) (*Pool, error) {
	if opts.Label == "" {
		return nil, fmt.Errorf("%w: pool label is required", economy.ErrConfiguration)
	}
	if opts.Growth == nil {
		return nil, fmt.Errorf("%w: pool %q has no user growth model", economy.ErrConfiguration, opts.Label)
	}
	if opts.Transactions == nil {
		return nil, fmt.Errorf("%w: pool %q has no transaction model", economy.ErrConfiguration, opts.Label)
	}
	if opts.Currency == "" {
		opts.Currency = economy.CurrencyFiat
	}
	if opts.Currency != economy.CurrencyFiat && opts.Currency != economy.CurrencyToken {
		return nil, fmt.Errorf("%w: pool %q currency %q", economy.ErrConfiguration, opts.Label, opts.Currency)
	}
	return &Pool{opts: opts}, nil
}

// Label identifies the cohort.
func (p *Pool) Label() string { return p.opts.Label }

// Currency reports the denomination of Volume.
func (p *Pool) Currency() economy.Currency { return p.opts.Currency }

// Step advances users first, then samples volume for the new count.
func (p *Pool) Step(ctx *economy.StepContext) error {
	users, err := p.opts.Growth.Users(ctx)
	if err != nil {
		return err
	}
	if users < 0 {
		users = 0
	}
	p.users = users

	vol, err := p.opts.Transactions.Volume(ctx, users)
	if err != nil {
		return err
	}
	p.volume = vol
	return nil
}

// Users returns the active-user count after the last Step.
func (p *Pool) Users() float64 { return p.users }

// Volume returns the last Step's transaction volume.
func (p *Pool) Volume() float64 { return p.volume }

// Reset restores the pool and its models to their initial state.
func (p *Pool) Reset() {
	p.users = 0
	p.volume = 0
	p.opts.Growth.Reset()
	p.opts.Transactions.Reset()
}
