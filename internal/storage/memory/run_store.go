// Package memory provides in-memory implementations of the storage
// interfaces, used in tests and for runs that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunRecord
}

var _ storage.RunStore = (*RunStore)(nil)

// NewRunStore creates an empty in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*domain.RunRecord)}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil run", storage.ErrInvalidInput)
	}
	if r.RunID == "" {
		return fmt.Errorf("%w: empty run_id", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; exists {
		return fmt.Errorf("%w: run_id %s", storage.ErrDuplicateKey, r.RunID)
	}

	cp := *r
	s.runs[r.RunID] = &cp
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("%w: run_id %s", storage.ErrNotFound, runID)
	}
	cp := *r
	return &cp, nil
}

// GetByScenarioID retrieves all runs of a scenario, ordered by started_at ASC.
func (s *RunStore) GetByScenarioID(_ context.Context, scenarioID string) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RunRecord
	for _, r := range s.runs {
		if r.ScenarioID == scenarioID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortRuns(out)
	return out, nil
}

// List retrieves all runs, ordered by started_at ASC.
func (s *RunStore) List(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		cp := *r
		out = append(out, &cp)
	}
	sortRuns(out)
	return out, nil
}

func sortRuns(runs []*domain.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})
}
