package storage

import (
	"context"

	"tokensim/internal/domain"
)

// RunStore provides access to simulation run records.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetByScenarioID retrieves all runs of a scenario, ordered by started_at ASC.
	GetByScenarioID(ctx context.Context, scenarioID string) ([]*domain.RunRecord, error)

	// List retrieves all runs, ordered by started_at ASC.
	List(ctx context.Context) ([]*domain.RunRecord, error)
}

// AggregateStore provides access to per-variable per-step summary stats.
type AggregateStore interface {
	// InsertBulk adds the aggregates of one run atomically.
	// Fails the entire batch on any duplicate (run_id, variable, step).
	InsertBulk(ctx context.Context, stats []*domain.VariableStats) error

	// GetByRun retrieves all aggregates of a run, ordered by variable, step ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.VariableStats, error)

	// GetByVariable retrieves one variable's aggregates for a run, ordered by step ASC.
	GetByVariable(ctx context.Context, runID, variable string) ([]*domain.VariableStats, error)
}

// PointStore provides access to raw per-repetition time-series points.
// Point volume is large (variables x repetitions x steps), so the
// store is bulk-write oriented.
type PointStore interface {
	// InsertBulk adds a batch of points.
	InsertBulk(ctx context.Context, points []*domain.Point) error

	// GetByRunVariable retrieves all points of one variable in a run,
	// ordered by repetition, step ASC.
	GetByRunVariable(ctx context.Context, runID, variable string) ([]*domain.Point, error)
}
