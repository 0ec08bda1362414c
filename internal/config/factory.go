package config

import (
	"errors"
	"fmt"

	"tokensim/internal/addon"
	"tokensim/internal/economy"
	"tokensim/internal/holding"
	"tokensim/internal/pool"
	"tokensim/internal/pricing"
	"tokensim/internal/sampler"
	"tokensim/internal/supply"
	"tokensim/internal/txn"
	"tokensim/internal/usergrowth"
)

// Factory errors
var (
	ErrUnknownPriceType       = errors.New("unknown price function type")
	ErrUnknownHoldingTimeType = errors.New("unknown holding time type")
	ErrUnknownGrowthType      = errors.New("unknown user growth type")
	ErrUnknownTransactionType = errors.New("unknown transaction model type")
	ErrUnknownControllerType  = errors.New("unknown supply controller type")
	ErrUnknownAddOnType       = errors.New("unknown add-on type")
)

// PriceConfig selects and parameterizes a price function.
type PriceConfig struct {
	// Type is one of eoe, bonding_curve, trend.
	Type string `yaml:"type"`

	// eoe
	Smoothing          float64 `yaml:"smoothing"`
	VelocityRegression bool    `yaml:"velocity_regression"`

	// bonding_curve
	Intercept   float64 `yaml:"intercept"`
	Coefficient float64 `yaml:"coefficient"`
	Exponent    float64 `yaml:"exponent"`
	MaxSupply   float64 `yaml:"max_supply"`

	// trend
	Anchor          float64 `yaml:"anchor"`
	GrowthRate      float64 `yaml:"growth_rate"`
	TopAppreciation float64 `yaml:"top_appreciation"`
}

func buildPriceFunction(cfg PriceConfig) (economy.PriceFunction, error) {
	switch cfg.Type {
	case "eoe":
		smoothing := cfg.Smoothing
		if smoothing == 0 {
			smoothing = 1
		}
		return pricing.NewEOE(pricing.EOEOptions{
			Smoothing:          smoothing,
			VelocityRegression: cfg.VelocityRegression,
		})
	case "bonding_curve":
		return pricing.NewBondingCurve(pricing.BondingCurveOptions{
			Intercept:   cfg.Intercept,
			Coefficient: cfg.Coefficient,
			Exponent:    cfg.Exponent,
			MaxSupply:   cfg.MaxSupply,
		})
	case "trend":
		return pricing.NewTrend(pricing.TrendOptions{
			Anchor:          cfg.Anchor,
			GrowthRate:      cfg.GrowthRate,
			TopAppreciation: cfg.TopAppreciation,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPriceType, cfg.Type)
	}
}

// HoldingTimeConfig selects and parameterizes a holding-time model.
type HoldingTimeConfig struct {
	// Type is one of constant, stochastic, adaptive.
	Type string `yaml:"type"`

	// constant
	Value float64 `yaml:"value"`

	// stochastic
	Dist   string             `yaml:"dist"`
	Params map[string]float64 `yaml:"params"`
	Floor  float64            `yaml:"floor"`

	// adaptive
	Initial float64 `yaml:"initial"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

func buildHoldingTime(cfg HoldingTimeConfig) (economy.HoldingTimeModel, error) {
	switch cfg.Type {
	case "constant":
		return holding.NewConstant(cfg.Value)
	case "stochastic":
		return holding.NewStochastic(holding.StochasticOptions{
			Dist:   sampler.Kind(cfg.Dist),
			Params: sampler.Params(cfg.Params),
			Floor:  cfg.Floor,
		})
	case "adaptive":
		return holding.NewAdaptive(holding.AdaptiveOptions{
			Initial: cfg.Initial,
			Min:     cfg.Min,
			Max:     cfg.Max,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHoldingTimeType, cfg.Type)
	}
}

// PoolConfig describes one agent pool.
type PoolConfig struct {
	Label        string            `yaml:"label"`
	Currency     string            `yaml:"currency"`
	Growth       GrowthConfig      `yaml:"growth"`
	Transactions TransactionConfig `yaml:"transactions"`
}

// GrowthConfig selects and parameterizes a user growth model.
type GrowthConfig struct {
	// Type is one of constant, data, spaced, stochastic.
	Type string `yaml:"type"`

	// constant
	Value float64 `yaml:"value"`

	// data
	Data []float64 `yaml:"data"`

	// spaced
	Initial    float64 `yaml:"initial"`
	Max        float64 `yaml:"max"`
	Shape      string  `yaml:"shape"`
	NoiseScale float64 `yaml:"noise_scale"`

	// stochastic
	Dist     string             `yaml:"dist"`
	Params   map[string]float64 `yaml:"params"`
	Additive bool               `yaml:"additive"`
}

func buildGrowth(cfg GrowthConfig) (pool.UserGrowth, error) {
	switch cfg.Type {
	case "constant":
		return usergrowth.NewConstant(cfg.Value)
	case "data":
		return usergrowth.NewFromData(cfg.Data)
	case "spaced":
		return usergrowth.NewSpaced(usergrowth.SpacedOptions{
			Initial:    cfg.Initial,
			Max:        cfg.Max,
			Shape:      usergrowth.Curve(cfg.Shape),
			NoiseScale: cfg.NoiseScale,
		})
	case "stochastic":
		return usergrowth.NewStochastic(usergrowth.StochasticOptions{
			Dist:     sampler.Kind(cfg.Dist),
			Params:   sampler.Params(cfg.Params),
			Additive: cfg.Additive,
			Initial:  cfg.Initial,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrowthType, cfg.Type)
	}
}

// TransactionConfig selects and parameterizes a transaction model.
type TransactionConfig struct {
	// Type is one of constant, constant_total, data, trend, stochastic,
	// marketcap.
	Type string `yaml:"type"`

	// constant, constant_total
	Value float64 `yaml:"value"`

	// data
	Data []float64 `yaml:"data"`

	// trend
	AvgStart   float64 `yaml:"avg_start"`
	AvgEnd     float64 `yaml:"avg_end"`
	Shape      string  `yaml:"shape"`
	NoiseScale float64 `yaml:"noise_scale"`

	// stochastic
	ActivityRate float64            `yaml:"activity_rate"`
	ValueDist    string             `yaml:"value_dist"`
	ValueParams  map[string]float64 `yaml:"value_params"`

	// marketcap
	TurnoverDist   string             `yaml:"turnover_dist"`
	TurnoverParams map[string]float64 `yaml:"turnover_params"`
}

func buildTransactions(cfg TransactionConfig) (pool.TransactionModel, error) {
	switch cfg.Type {
	case "constant":
		return txn.NewConstant(cfg.Value)
	case "constant_total":
		return txn.NewConstantTotal(cfg.Value)
	case "data":
		return txn.NewFromData(cfg.Data)
	case "trend":
		return txn.NewTrend(txn.TrendOptions{
			AvgStart:   cfg.AvgStart,
			AvgEnd:     cfg.AvgEnd,
			Shape:      cfg.Shape,
			NoiseScale: cfg.NoiseScale,
		})
	case "stochastic":
		return txn.NewStochastic(txn.StochasticOptions{
			ActivityRate: cfg.ActivityRate,
			ValueDist:    sampler.Kind(cfg.ValueDist),
			ValueParams:  sampler.Params(cfg.ValueParams),
		})
	case "marketcap":
		return txn.NewMarketcapStochastic(txn.MarketcapStochasticOptions{
			TurnoverDist:   sampler.Kind(cfg.TurnoverDist),
			TurnoverParams: sampler.Params(cfg.TurnoverParams),
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransactionType, cfg.Type)
	}
}

func buildPool(cfg PoolConfig) (*pool.Pool, error) {
	growth, err := buildGrowth(cfg.Growth)
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", cfg.Label, err)
	}
	txns, err := buildTransactions(cfg.Transactions)
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", cfg.Label, err)
	}
	return pool.New(pool.Options{
		Label:        cfg.Label,
		Currency:     economy.Currency(cfg.Currency),
		Growth:       growth,
		Transactions: txns,
	})
}

// ControllerConfig selects and parameterizes a supply controller.
type ControllerConfig struct {
	// Type is one of burn, mint, one_shot, data, cliff_vesting, dumper.
	Type string `yaml:"type"`

	// burn, mint
	Param        float64 `yaml:"param"`
	Style        string  `yaml:"style"`
	SelfDestruct bool    `yaml:"self_destruct"`

	// one_shot, dumper
	Amount float64 `yaml:"amount"`

	// data
	Deltas []float64 `yaml:"deltas"`

	// cliff_vesting
	Total        float64 `yaml:"total"`
	CliffSteps   int     `yaml:"cliff_steps"`
	VestingSteps int     `yaml:"vesting_steps"`

	// dumper
	Start   int `yaml:"start"`
	Spacing int `yaml:"spacing"`
	Dumps   int `yaml:"dumps"`
}

func buildController(cfg ControllerConfig) (economy.SupplyController, error) {
	switch cfg.Type {
	case "burn":
		return supply.NewBurn(supply.BurnOptions{
			Param:        cfg.Param,
			Style:        supply.Style(cfg.Style),
			SelfDestruct: cfg.SelfDestruct,
		})
	case "mint":
		return supply.NewMint(supply.MintOptions{
			Param: cfg.Param,
			Style: supply.Style(cfg.Style),
		})
	case "one_shot":
		return supply.NewOneShot(cfg.Amount)
	case "data":
		return supply.NewFromData(cfg.Deltas)
	case "cliff_vesting":
		return supply.NewCliffVesting(supply.CliffVestingOptions{
			Total:        cfg.Total,
			CliffSteps:   cfg.CliffSteps,
			VestingSteps: cfg.VestingSteps,
		})
	case "dumper":
		return supply.NewDumper(supply.DumperOptions{
			Amount:  cfg.Amount,
			Start:   cfg.Start,
			Spacing: cfg.Spacing,
			Dumps:   cfg.Dumps,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownControllerType, cfg.Type)
	}
}

// AddOnConfig selects and parameterizes a post-step transform.
type AddOnConfig struct {
	// Type is one of noise, proportional_noise, random_reduction,
	// timed_multiplier.
	Type string `yaml:"type"`

	// Variable is the targeted time-series column. Required.
	Variable string `yaml:"variable"`

	// noise
	Dist   string             `yaml:"dist"`
	Params map[string]float64 `yaml:"params"`

	// proportional_noise
	StdDivisor float64 `yaml:"std_divisor"`

	// random_reduction
	Probability  float64 `yaml:"probability"`
	MaxReduction float64 `yaml:"max_reduction"`

	// timed_multiplier
	Start      int     `yaml:"start"`
	End        int     `yaml:"end"`
	Multiplier float64 `yaml:"multiplier"`
}

func buildAddOn(cfg AddOnConfig) (economy.AddOn, error) {
	switch cfg.Type {
	case "noise":
		return addon.NewNoise(addon.NoiseOptions{
			Variable: cfg.Variable,
			Dist:     sampler.Kind(cfg.Dist),
			Params:   sampler.Params(cfg.Params),
		})
	case "proportional_noise":
		return addon.NewProportionalNoise(addon.ProportionalNoiseOptions{
			Variable:   cfg.Variable,
			StdDivisor: cfg.StdDivisor,
		})
	case "random_reduction":
		return addon.NewRandomReduction(addon.RandomReductionOptions{
			Variable:     cfg.Variable,
			Probability:  cfg.Probability,
			MaxReduction: cfg.MaxReduction,
		})
	case "timed_multiplier":
		return addon.NewTimedMultiplier(addon.TimedMultiplierOptions{
			Variable:   cfg.Variable,
			Start:      cfg.Start,
			End:        cfg.End,
			Multiplier: cfg.Multiplier,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAddOnType, cfg.Type)
	}
}
