// Package config loads simulation scenario files and wires them into
// runnable economies.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tokensim/internal/domain"
	"tokensim/internal/economy"
	"tokensim/internal/montecarlo"
)

// File is the top-level scenario file layout.
type File struct {
	// Iterations is the number of time steps per repetition.
	Iterations int `yaml:"iterations"`

	// Repetitions is the number of Monte-Carlo repetitions.
	Repetitions int `yaml:"repetitions"`

	// Seed is the base RNG seed. Fixed seed means reproducible runs.
	Seed int64 `yaml:"seed"`

	// Workers bounds repetition parallelism. 0 means sequential.
	Workers int `yaml:"workers"`

	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

// ScenarioConfig describes one economy wiring.
type ScenarioConfig struct {
	Name           string    `yaml:"name"`
	Token          string    `yaml:"token"`
	Fiat           string    `yaml:"fiat"`
	Unit           string    `yaml:"unit"`
	InitialPrice   float64   `yaml:"initial_price"`
	InitialSupply  float64   `yaml:"initial_supply"`
	SupplySchedule []float64 `yaml:"supply_schedule"`
	MintBurn       bool      `yaml:"mint_burn"`

	Price       PriceConfig        `yaml:"price"`
	HoldingTime *HoldingTimeConfig `yaml:"holding_time"`
	Pools       []PoolConfig       `yaml:"pools"`
	Controllers []ControllerConfig `yaml:"controllers"`
	AddOns      []AddOnConfig      `yaml:"addons"`
}

// Load reads and parses a scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario file contents.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse scenario file: %v", economy.ErrConfiguration, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Iterations <= 0 {
		return fmt.Errorf("%w: iterations %d", economy.ErrConfiguration, f.Iterations)
	}
	if f.Repetitions <= 0 {
		return fmt.Errorf("%w: repetitions %d", economy.ErrConfiguration, f.Repetitions)
	}
	if f.Workers < 0 {
		return fmt.Errorf("%w: workers %d", economy.ErrConfiguration, f.Workers)
	}
	if len(f.Scenarios) == 0 {
		return fmt.Errorf("%w: no scenarios", economy.ErrConfiguration)
	}
	for i := range f.Scenarios {
		sc := &f.Scenarios[i]
		if sc.Name == "" {
			return fmt.Errorf("%w: scenario %d has no name", economy.ErrConfiguration, i)
		}
		if sc.Token == "" {
			return fmt.Errorf("%w: scenario %q has no token", economy.ErrConfiguration, sc.Name)
		}
	}
	return nil
}

// BuildScenarios converts the file into simulator scenarios. Each
// Build call produces a fresh, independently wired economy.
func (f *File) BuildScenarios() []montecarlo.Scenario {
	out := make([]montecarlo.Scenario, 0, len(f.Scenarios))
	for i := range f.Scenarios {
		sc := f.Scenarios[i]
		out = append(out, montecarlo.Scenario{
			Name:  sc.Name,
			Build: func() (*economy.TokenEconomy, error) { return BuildEconomy(sc) },
		})
	}
	return out
}

// BuildEconomy wires one scenario into a TokenEconomy.
func BuildEconomy(sc ScenarioConfig) (*economy.TokenEconomy, error) {
	priceFn, err := buildPriceFunction(sc.Price)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	cfg := economy.Config{
		Token:          sc.Token,
		Fiat:           sc.Fiat,
		Unit:           domain.UnitOfTime(sc.Unit),
		InitialPrice:   sc.InitialPrice,
		InitialSupply:  sc.InitialSupply,
		SupplySchedule: sc.SupplySchedule,
		MintBurn:       sc.MintBurn,
		PriceFn:        priceFn,
	}

	if sc.HoldingTime != nil {
		ht, err := buildHoldingTime(*sc.HoldingTime)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		cfg.HoldingTime = ht
	}

	eco, err := economy.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	for _, pc := range sc.Pools {
		p, err := buildPool(pc)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		eco.AddPool(p)
	}
	for _, cc := range sc.Controllers {
		c, err := buildController(cc)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		eco.AddController(c)
	}
	for _, ac := range sc.AddOns {
		a, err := buildAddOn(ac)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		eco.AddAddOn(a)
	}

	return eco, nil
}
