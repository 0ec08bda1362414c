package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu    sync.RWMutex
	stats map[string]*domain.VariableStats
}

var _ storage.AggregateStore = (*AggregateStore)(nil)

// NewAggregateStore creates an empty in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{stats: make(map[string]*domain.VariableStats)}
}

func aggregateKey(runID, variable string, step int) string {
	return fmt.Sprintf("%s|%s|%d", runID, variable, step)
}

// InsertBulk adds the aggregates of one run atomically. Fails the
// entire batch on any duplicate, including duplicates within the batch.
func (s *AggregateStore) InsertBulk(_ context.Context, stats []*domain.VariableStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(stats))
	for _, st := range stats {
		if st == nil {
			return fmt.Errorf("%w: nil aggregate", storage.ErrInvalidInput)
		}
		if st.RunID == "" || st.Variable == "" {
			return fmt.Errorf("%w: aggregate missing run_id or variable", storage.ErrInvalidInput)
		}
		key := aggregateKey(st.RunID, st.Variable, st.Step)
		if seen[key] {
			return fmt.Errorf("%w: duplicate within batch: %s", storage.ErrDuplicateKey, key)
		}
		if _, exists := s.stats[key]; exists {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, key)
		}
		seen[key] = true
	}

	for _, st := range stats {
		cp := *st
		s.stats[aggregateKey(st.RunID, st.Variable, st.Step)] = &cp
	}
	return nil
}

// GetByRun retrieves all aggregates of a run, ordered by variable, step ASC.
func (s *AggregateStore) GetByRun(_ context.Context, runID string) ([]*domain.VariableStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.VariableStats
	for _, st := range s.stats {
		if st.RunID == runID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sortStats(out)
	return out, nil
}

// GetByVariable retrieves one variable's aggregates for a run, ordered by step ASC.
func (s *AggregateStore) GetByVariable(_ context.Context, runID, variable string) ([]*domain.VariableStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.VariableStats
	for _, st := range s.stats {
		if st.RunID == runID && st.Variable == variable {
			cp := *st
			out = append(out, &cp)
		}
	}
	sortStats(out)
	return out, nil
}

func sortStats(stats []*domain.VariableStats) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Variable != stats[j].Variable {
			return stats[i].Variable < stats[j].Variable
		}
		return stats[i].Step < stats[j].Step
	})
}
