package pool_test

import (
	"errors"
	"testing"

	"tokensim/internal/economy"
	"tokensim/internal/pool"
)

type stubGrowth struct {
	users  float64
	err    error
	resets int
}

func (s *stubGrowth) Users(*economy.StepContext) (float64, error) { return s.users, s.err }
func (s *stubGrowth) Reset()                                      { s.resets++ }

type stubTxn struct {
	perUser   float64
	lastUsers float64
	resets    int
}

func (s *stubTxn) Volume(_ *economy.StepContext, users float64) (float64, error) {
	s.lastUsers = users
	return s.perUser * users, nil
}
func (s *stubTxn) Reset() { s.resets++ }

func TestNew_Validation(t *testing.T) {
	growth := &stubGrowth{}
	txns := &stubTxn{}

	if _, err := pool.New(pool.Options{Growth: growth, Transactions: txns}); !errors.Is(err, economy.ErrConfiguration) {
		t.Errorf("expected configuration error for missing label, got %v", err)
	}
	if _, err := pool.New(pool.Options{Label: "holders", Transactions: txns}); !errors.Is(err, economy.ErrConfiguration) {
		t.Errorf("expected configuration error for missing growth, got %v", err)
	}
	if _, err := pool.New(pool.Options{Label: "holders", Growth: growth}); !errors.Is(err, economy.ErrConfiguration) {
		t.Errorf("expected configuration error for missing transactions, got %v", err)
	}
	if _, err := pool.New(pool.Options{Label: "holders", Growth: growth, Transactions: txns, Currency: "gold"}); !errors.Is(err, economy.ErrConfiguration) {
		t.Errorf("expected configuration error for unknown currency, got %v", err)
	}
}

func TestStep_UsersFeedVolume(t *testing.T) {
	growth := &stubGrowth{users: 40}
	txns := &stubTxn{perUser: 2}

	p, err := pool.New(pool.Options{Label: "holders", Growth: growth, Transactions: txns})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Step(&economy.StepContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The volume model sees the freshly advanced user count.
	if txns.lastUsers != 40 {
		t.Errorf("expected volume model to see 40 users, got %f", txns.lastUsers)
	}
	if p.Users() != 40 {
		t.Errorf("expected 40 users, got %f", p.Users())
	}
	if p.Volume() != 80 {
		t.Errorf("expected volume 80, got %f", p.Volume())
	}
}

func TestStep_NegativeUsersClamped(t *testing.T) {
	growth := &stubGrowth{users: -12}
	txns := &stubTxn{perUser: 2}

	p, err := pool.New(pool.Options{Label: "holders", Growth: growth, Transactions: txns})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Step(&economy.StepContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Users() != 0 {
		t.Errorf("expected users clamped to 0, got %f", p.Users())
	}
}

func TestStep_GrowthErrorPropagates(t *testing.T) {
	wantErr := errors.New("draw failed")
	p, err := pool.New(pool.Options{
		Label:        "holders",
		Growth:       &stubGrowth{err: wantErr},
		Transactions: &stubTxn{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Step(&economy.StepContext{}); !errors.Is(err, wantErr) {
		t.Errorf("expected growth error, got %v", err)
	}
}

func TestDefaultCurrency(t *testing.T) {
	p, err := pool.New(pool.Options{Label: "holders", Growth: &stubGrowth{}, Transactions: &stubTxn{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Currency() != economy.CurrencyFiat {
		t.Errorf("expected fiat default, got %q", p.Currency())
	}
}

func TestReset(t *testing.T) {
	growth := &stubGrowth{users: 10}
	txns := &stubTxn{perUser: 1}

	p, err := pool.New(pool.Options{Label: "holders", Growth: growth, Transactions: txns})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Step(&economy.StepContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Reset()

	if p.Users() != 0 || p.Volume() != 0 {
		t.Errorf("expected zeroed counters after reset, got users=%f volume=%f", p.Users(), p.Volume())
	}
	if growth.resets != 1 || txns.resets != 1 {
		t.Errorf("expected sub-models reset once, got growth=%d txn=%d", growth.resets, txns.resets)
	}
}
