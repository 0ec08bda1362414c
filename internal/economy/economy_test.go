package economy_test

import (
	"errors"
	"math"
	"testing"

	"tokensim/internal/economy"
	"tokensim/internal/history"
	"tokensim/internal/sampler"
)

// stubPrice returns a fixed price, or an injected value per call.
type stubPrice struct {
	value float64
	fn    func(ctx *economy.StepContext) (float64, error)
}

func (s *stubPrice) Compute(_ history.View, ctx *economy.StepContext) (float64, error) {
	if s.fn != nil {
		return s.fn(ctx)
	}
	return s.value, nil
}

func (s *stubPrice) Reset() {}

// stubPool reports a fixed user count and volume every step.
type stubPool struct {
	label    string
	currency economy.Currency
	users    float64
	volume   float64
	steps    int
	resets   int
}

func (p *stubPool) Label() string              { return p.label }
func (p *stubPool) Currency() economy.Currency { return p.currency }
func (p *stubPool) Step(*economy.StepContext) error {
	p.steps++
	return nil
}
func (p *stubPool) Users() float64  { return p.users }
func (p *stubPool) Volume() float64 { return p.volume }
func (p *stubPool) Reset()          { p.resets++; p.steps = 0 }

// stubController applies a fixed delta or a function of the context.
type stubController struct {
	delta  float64
	fn     func(ctx *economy.StepContext) (float64, error)
	resets int
}

func (c *stubController) Delta(ctx *economy.StepContext) (float64, error) {
	if c.fn != nil {
		return c.fn(ctx)
	}
	return c.delta, nil
}

func (c *stubController) Reset() { c.resets++ }

// stubAddOn transforms a variable with an arbitrary function.
type stubAddOn struct {
	variable string
	fn       func(v float64) float64
}

func (a *stubAddOn) Variable() string { return a.variable }
func (a *stubAddOn) Apply(v float64, _ *economy.StepContext) (float64, error) {
	return a.fn(v), nil
}
func (a *stubAddOn) Reset() {}

func newEconomy(t *testing.T, cfg economy.Config) *economy.TokenEconomy {
	t.Helper()
	eco, err := economy.New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return eco
}

func run(t *testing.T, eco *economy.TokenEconomy, iterations int) {
	t.Helper()
	if err := eco.Validate(iterations); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	eco.Reset(iterations, sampler.New(1))
	for i := 0; i < iterations; i++ {
		if err := eco.Step(); err != nil {
			t.Fatalf("Step %d returned error: %v", i, err)
		}
	}
}

func TestSupplySchedulePassThrough(t *testing.T) {
	schedule := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	eco := newEconomy(t, economy.Config{
		Token:          "tok",
		InitialPrice:   1,
		SupplySchedule: schedule,
		PriceFn:        &stubPrice{value: 1},
	})

	run(t, eco, len(schedule))

	series := eco.History().Series("tok_supply")
	if len(series) != len(schedule) {
		t.Fatalf("supply series length %d, want %d", len(series), len(schedule))
	}
	for i, want := range schedule {
		if series[i] != want {
			t.Errorf("supply at step %d = %v, want %v", i, series[i], want)
		}
	}
}

func TestSupplyScheduleLengthMismatch(t *testing.T) {
	schedule := make([]float64, 9)
	eco := newEconomy(t, economy.Config{
		Token:          "tok",
		InitialPrice:   1,
		SupplySchedule: schedule,
		PriceFn:        &stubPrice{value: 1},
	})

	err := eco.Validate(270)
	if !errors.Is(err, economy.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for mismatched schedule, got %v", err)
	}
}

func TestMissingPriceFunction(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
	})

	if err := eco.Validate(10); !errors.Is(err, economy.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing price function, got %v", err)
	}
}

func TestPercentageBurnAgainstFlatSchedule(t *testing.T) {
	const burn = 0.05 / 30
	const flat = 1000.0
	schedule := make([]float64, 10)
	for i := range schedule {
		schedule[i] = flat
	}

	eco := newEconomy(t, economy.Config{
		Token:          "tok",
		InitialPrice:   1,
		SupplySchedule: schedule,
		MintBurn:       true,
		PriceFn:        &stubPrice{value: 1},
	})
	eco.AddController(&stubController{fn: func(ctx *economy.StepContext) (float64, error) {
		return -burn * ctx.Supply, nil
	}})

	run(t, eco, len(schedule))

	want := flat * (1 - burn)
	series := eco.History().Series("tok_supply")
	for i, got := range series {
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("post-burn supply at step %d = %v, want %v", i, got, want)
		}
	}
}

func TestBurnClampsSupplyAtZero(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 1_000_000,
		MintBurn:      true,
		PriceFn:       &stubPrice{value: 1},
	})
	// Burns more than the entire supply in one step.
	eco.AddController(&stubController{delta: -2_000_000})

	run(t, eco, 3)

	series := eco.History().Series("tok_supply")
	for i, got := range series {
		if got != 0 {
			t.Errorf("clamped supply at step %d = %v, want 0", i, got)
		}
	}
	if eco.ClampEvents() == 0 {
		t.Error("clamp events not counted")
	}
}

func TestControllersApplyInRegistrationOrder(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 1000,
		MintBurn:      true,
		PriceFn:       &stubPrice{value: 1},
	})
	// Mint 100, then halve: the halving must see the minted supply.
	eco.AddController(&stubController{delta: 100})
	eco.AddController(&stubController{fn: func(ctx *economy.StepContext) (float64, error) {
		return -0.5 * ctx.Supply, nil
	}})

	run(t, eco, 1)

	if got, _ := eco.History().Last("tok_supply"); got != 550 {
		t.Errorf("supply after ordered controllers = %v, want 550", got)
	}
}

func TestControllersSkippedWhenMintBurnDisabled(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 1000,
		MintBurn:      false,
		PriceFn:       &stubPrice{value: 1},
	})
	eco.AddController(&stubController{delta: -100})

	run(t, eco, 5)

	if got, _ := eco.History().Last("tok_supply"); got != 1000 {
		t.Errorf("supply with mint/burn disabled = %v, want 1000", got)
	}
}

func TestNonFinitePriceIsNumericalError(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn: &stubPrice{fn: func(*economy.StepContext) (float64, error) {
			return math.NaN(), nil
		}},
	})

	if err := eco.Validate(1); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	eco.Reset(1, sampler.New(1))
	if err := eco.Step(); !errors.Is(err, economy.ErrNumerical) {
		t.Fatalf("expected ErrNumerical for NaN price, got %v", err)
	}
}

func TestNegativePriceClampedToZero(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: -3},
	})

	run(t, eco, 2)

	series := eco.History().Series("tok_price")
	for i, got := range series {
		if got != 0 {
			t.Errorf("price at step %d = %v, want 0", i, got)
		}
	}
}

func TestPoolVariablesRecorded(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  2,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: 2},
	})
	eco.AddPool(&stubPool{label: "retail", currency: economy.CurrencyFiat, users: 10, volume: 40})
	eco.AddPool(&stubPool{label: "whale", currency: economy.CurrencyToken, users: 1, volume: 5})

	run(t, eco, 4)

	hist := eco.History()
	for _, name := range []string{
		"retail_users", "retail_transactions",
		"whale_users", "whale_transactions",
		"transactions_fiat", "transactions_token",
		"tok_supply", "tok_price",
		"holding_time", "effective_holding_time",
	} {
		if hist.Len(name) != 4 {
			t.Errorf("variable %q has %d steps, want 4", name, hist.Len(name))
		}
	}

	// Fiat volume: 40 fiat + 5 token at price 2 = 50.
	if got, _ := hist.Last("transactions_fiat"); got != 50 {
		t.Errorf("transactions_fiat = %v, want 50", got)
	}
	// Token volume: 5 token + 40/2 fiat-converted = 25.
	if got, _ := hist.Last("transactions_token"); got != 25 {
		t.Errorf("transactions_token = %v, want 25", got)
	}
}

func TestDuplicatePoolLabels(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: 1},
	})
	eco.AddPool(&stubPool{label: "retail"})
	eco.AddPool(&stubPool{label: "retail"})

	if err := eco.Validate(10); !errors.Is(err, economy.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for duplicate labels, got %v", err)
	}
}

func TestAddOnsComposeInRegistrationOrder(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: 5},
	})
	eco.AddAddOn(&stubAddOn{variable: "tok_price", fn: func(v float64) float64 { return v * 2 }})
	eco.AddAddOn(&stubAddOn{variable: "tok_price", fn: func(v float64) float64 { return v + 10 }})

	run(t, eco, 1)

	// (5 * 2) + 10, not (5 + 10) * 2.
	if got, _ := eco.History().Last("tok_price"); got != 20 {
		t.Errorf("price after ordered add-ons = %v, want 20", got)
	}
	if eco.Price() != 20 {
		t.Errorf("economy price = %v, want the post-add-on value 20", eco.Price())
	}
}

func TestAddOnUnknownVariable(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: 1},
	})
	eco.AddAddOn(&stubAddOn{variable: "missing", fn: func(v float64) float64 { return v }})

	if err := eco.Validate(1); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	eco.Reset(1, sampler.New(1))
	if err := eco.Step(); !errors.Is(err, economy.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown add-on target, got %v", err)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	p := &stubPool{label: "retail", users: 3, volume: 9}
	c := &stubController{delta: -10}
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  0.5,
		InitialSupply: 500,
		MintBurn:      true,
		PriceFn:       &stubPrice{value: 2},
	})
	eco.AddPool(p)
	eco.AddController(c)

	run(t, eco, 5)

	if eco.StepIndex() != 5 {
		t.Fatalf("step index = %d, want 5", eco.StepIndex())
	}

	eco.Reset(5, sampler.New(2))

	if eco.StepIndex() != 0 {
		t.Errorf("step index after reset = %d, want 0", eco.StepIndex())
	}
	if eco.Price() != 0.5 {
		t.Errorf("price after reset = %v, want 0.5", eco.Price())
	}
	if eco.Supply() != 500 {
		t.Errorf("supply after reset = %v, want 500", eco.Supply())
	}
	if eco.History().Len("tok_price") != 0 {
		t.Error("history not cleared by reset")
	}
	if p.resets == 0 || c.resets == 0 {
		t.Error("attached components not reset")
	}
	if p.steps != 0 {
		t.Error("pool step counter not reset")
	}
}

func TestStepBeyondPlannedIterations(t *testing.T) {
	eco := newEconomy(t, economy.Config{
		Token:         "tok",
		InitialPrice:  1,
		InitialSupply: 100,
		PriceFn:       &stubPrice{value: 1},
	})

	run(t, eco, 2)

	if err := eco.Step(); !errors.Is(err, economy.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration stepping past the plan, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  economy.Config
	}{
		{"missing token", economy.Config{InitialPrice: 1}},
		{"negative price", economy.Config{Token: "tok", InitialPrice: -1}},
		{"negative supply", economy.Config{Token: "tok", InitialPrice: 1, InitialSupply: -5}},
		{"bad unit", economy.Config{Token: "tok", InitialPrice: 1, Unit: "fortnight"}},
		{"negative schedule value", economy.Config{Token: "tok", InitialPrice: 1, SupplySchedule: []float64{1, -2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := economy.New(tc.cfg); !errors.Is(err, economy.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
