package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// PointStore is an in-memory implementation of storage.PointStore.
type PointStore struct {
	mu     sync.RWMutex
	points []*domain.Point
}

var _ storage.PointStore = (*PointStore)(nil)

// NewPointStore creates an empty in-memory point store.
func NewPointStore() *PointStore {
	return &PointStore{}
}

// InsertBulk adds a batch of points.
func (s *PointStore) InsertBulk(_ context.Context, points []*domain.Point) error {
	for _, p := range points {
		if p == nil {
			return fmt.Errorf("%w: nil point", storage.ErrInvalidInput)
		}
		if p.RunID == "" || p.Variable == "" {
			return fmt.Errorf("%w: point missing run_id or variable", storage.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		cp := *p
		s.points = append(s.points, &cp)
	}
	return nil
}

// GetByRunVariable retrieves all points of one variable in a run,
// ordered by repetition, step ASC.
func (s *PointStore) GetByRunVariable(_ context.Context, runID, variable string) ([]*domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Point
	for _, p := range s.points {
		if p.RunID == runID && p.Variable == variable {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Repetition != out[j].Repetition {
			return out[i].Repetition < out[j].Repetition
		}
		return out[i].Step < out[j].Step
	})
	return out, nil
}
