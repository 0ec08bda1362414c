package config

import (
	"errors"
	"testing"

	"tokensim/internal/economy"
)

const fullFile = `
iterations: 100
repetitions: 10
seed: 42
workers: 4
scenarios:
  - name: baseline
    token: gem
    fiat: "$"
    unit: day
    initial_price: 0.03
    initial_supply: 1.0e6
    mint_burn: true
    price:
      type: eoe
      smoothing: 0.5
      velocity_regression: true
    holding_time:
      type: adaptive
      initial: 20
      min: 1
      max: 100
    pools:
      - label: holders
        currency: fiat
        growth:
          type: spaced
          initial: 100
          max: 10000
          shape: logistic
        transactions:
          type: stochastic
          activity_rate: 0.6
          value_dist: lognormal
          value_params: {mu: 2, sigma: 0.5}
      - label: speculators
        currency: token
        growth:
          type: stochastic
          dist: poisson
          params: {mu: 5}
          additive: true
          initial: 10
        transactions:
          type: marketcap
          turnover_dist: uniform
          turnover_params: {loc: 0, scale: 0.05}
    controllers:
      - type: burn
        param: 0.01
        style: perc
      - type: cliff_vesting
        total: 500000
        cliff_steps: 30
        vesting_steps: 60
    addons:
      - type: proportional_noise
        variable: gem_price
        std_divisor: 20
      - type: random_reduction
        variable: transactions_fiat
        probability: 0.02
        max_reduction: 0.5
`

func TestParse_FullFile(t *testing.T) {
	f, err := Parse([]byte(fullFile))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Iterations != 100 || f.Repetitions != 10 || f.Seed != 42 || f.Workers != 4 {
		t.Errorf("unexpected run parameters: %+v", f)
	}
	if len(f.Scenarios) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(f.Scenarios))
	}

	scenarios := f.BuildScenarios()
	if scenarios[0].Name != "baseline" {
		t.Errorf("expected scenario name baseline, got %q", scenarios[0].Name)
	}

	eco, err := scenarios[0].Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if eco.Token() != "gem" {
		t.Errorf("expected token gem, got %q", eco.Token())
	}
	if err := eco.Validate(100); err != nil {
		t.Errorf("expected wired economy to validate: %v", err)
	}

	// Each Build call wires a fresh economy.
	other, err := scenarios[0].Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if eco == other {
		t.Error("expected independent economies per build")
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"not yaml", ":\n-"},
		{"zero iterations", "iterations: 0\nrepetitions: 1\nscenarios: [{name: a, token: t}]"},
		{"zero repetitions", "iterations: 1\nrepetitions: 0\nscenarios: [{name: a, token: t}]"},
		{"no scenarios", "iterations: 1\nrepetitions: 1"},
		{"unnamed scenario", "iterations: 1\nrepetitions: 1\nscenarios: [{token: t}]"},
		{"missing token", "iterations: 1\nrepetitions: 1\nscenarios: [{name: a}]"},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.in)); !errors.Is(err, economy.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", c.name, err)
		}
	}
}

func TestBuildEconomy_UnknownTypes(t *testing.T) {
	base := ScenarioConfig{
		Name:  "a",
		Token: "gem",
		Price: PriceConfig{Type: "eoe"},
	}

	sc := base
	sc.Price = PriceConfig{Type: "oracle"}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownPriceType) {
		t.Errorf("expected unknown price type, got %v", err)
	}

	sc = base
	sc.HoldingTime = &HoldingTimeConfig{Type: "markov"}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownHoldingTimeType) {
		t.Errorf("expected unknown holding time type, got %v", err)
	}

	sc = base
	sc.Pools = []PoolConfig{{
		Label:        "holders",
		Growth:       GrowthConfig{Type: "viral"},
		Transactions: TransactionConfig{Type: "constant"},
	}}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownGrowthType) {
		t.Errorf("expected unknown growth type, got %v", err)
	}

	sc = base
	sc.Pools = []PoolConfig{{
		Label:        "holders",
		Growth:       GrowthConfig{Type: "constant", Value: 1},
		Transactions: TransactionConfig{Type: "auction"},
	}}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownTransactionType) {
		t.Errorf("expected unknown transaction type, got %v", err)
	}

	sc = base
	sc.Controllers = []ControllerConfig{{Type: "rebase"}}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownControllerType) {
		t.Errorf("expected unknown controller type, got %v", err)
	}

	sc = base
	sc.AddOns = []AddOnConfig{{Type: "tax", Variable: "gem_price"}}
	if _, err := BuildEconomy(sc); !errors.Is(err, ErrUnknownAddOnType) {
		t.Errorf("expected unknown add-on type, got %v", err)
	}
}

func TestBuildEconomy_ComponentValidationPropagates(t *testing.T) {
	sc := ScenarioConfig{
		Name:  "a",
		Token: "gem",
		Price: PriceConfig{Type: "eoe", Smoothing: 2},
	}
	if _, err := BuildEconomy(sc); !errors.Is(err, economy.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestEOEDefaultSmoothing(t *testing.T) {
	// An eoe block without smoothing means no smoothing at all.
	f, err := Parse([]byte(`
iterations: 10
repetitions: 1
scenarios:
  - name: a
    token: gem
    price:
      type: eoe
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := BuildEconomy(f.Scenarios[0]); err != nil {
		t.Errorf("expected default smoothing to build, got %v", err)
	}
}
