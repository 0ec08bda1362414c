package txn

import (
	"testing"

	"tokensim/internal/economy"
	"tokensim/internal/sampler"
)

// queueRand hands out preset draws in order.
type queueRand struct {
	draws []float64
	i     int
}

func (q *queueRand) One(sampler.Kind, sampler.Params) (float64, error) {
	v := q.draws[q.i%len(q.draws)]
	q.i++
	return v, nil
}

func (q *queueRand) Sample(kind sampler.Kind, params sampler.Params, count int) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		out[i], _ = q.One(kind, params)
	}
	return out, nil
}

func TestConstant_PerUser(t *testing.T) {
	c, err := NewConstant(2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vol, err := c.Volume(&economy.StepContext{}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 250 {
		t.Errorf("expected volume 250, got %f", vol)
	}
}

func TestConstant_Total(t *testing.T) {
	c, err := NewConstantTotal(1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Total volume ignores the user count.
	vol, err := c.Volume(&economy.StepContext{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 1000 {
		t.Errorf("expected volume 1000, got %f", vol)
	}
}

func TestFromData(t *testing.T) {
	f, err := NewFromData([]float64{10, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vol, err := f.Volume(&economy.StepContext{Step: 1}, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 20 {
		t.Errorf("expected volume 20, got %f", vol)
	}

	if _, err := f.Volume(&economy.StepContext{Step: 2}, 999); err == nil {
		t.Error("expected error past end of series")
	}
}

func TestTrend_Linear(t *testing.T) {
	tr, err := NewTrend(TrendOptions{AvgStart: 1, AvgEnd: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 planned steps: per-user averages 1, 2, 3.
	vol, err := tr.Volume(&economy.StepContext{Step: 1, Iterations: 3}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 20 {
		t.Errorf("expected volume 20, got %f", vol)
	}
}

func TestTrend_NoiseFloorsAverage(t *testing.T) {
	tr, err := NewTrend(TrendOptions{AvgStart: 1, AvgEnd: 1, NoiseScale: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A large negative draw cannot push the average below zero.
	rnd := &queueRand{draws: []float64{-5}}
	vol, err := tr.Volume(&economy.StepContext{Step: 0, Iterations: 2, Rand: rnd}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 0 {
		t.Errorf("expected volume 0, got %f", vol)
	}
}

func TestStochastic(t *testing.T) {
	s, err := NewStochastic(StochasticOptions{
		ActivityRate: 0.5,
		ValueDist:    sampler.LogNormal,
		ValueParams:  sampler.Params{"mu": 0, "sigma": 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First draw is the active-user count, second the per-user value.
	rnd := &queueRand{draws: []float64{40, 2.5}}
	vol, err := s.Volume(&economy.StepContext{Rand: rnd}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 100 {
		t.Errorf("expected volume 100, got %f", vol)
	}
}

func TestStochastic_InvalidOptions(t *testing.T) {
	if _, err := NewStochastic(StochasticOptions{ActivityRate: 1.5, ValueDist: sampler.Normal}); err == nil {
		t.Error("expected error for activity rate above 1")
	}
	if _, err := NewStochastic(StochasticOptions{ActivityRate: 0.5}); err == nil {
		t.Error("expected error for missing value distribution")
	}
}

func TestMarketcapStochastic(t *testing.T) {
	m, err := NewMarketcapStochastic(MarketcapStochasticOptions{
		TurnoverDist:   sampler.Uniform,
		TurnoverParams: sampler.Params{"loc": 0, "scale": 0.1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rnd := &queueRand{draws: []float64{0.05}}
	vol, err := m.Volume(&economy.StepContext{Rand: rnd, Price: 2, Supply: 1000}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol != 100 {
		t.Errorf("expected volume 100, got %f", vol)
	}
}
