package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return fmt.Errorf("%w: run with empty run_id", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO runs (
			run_id, scenario_id, scenario, token, unit_of_time,
			iterations, repetitions, failures, seed,
			started_at, finished_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.ScenarioID, r.Scenario, r.Token, string(r.UnitOfTime),
		r.Iterations, r.Repetitions, r.Failures, r.Seed,
		r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT run_id, scenario_id, scenario, token, unit_of_time,
		       iterations, repetitions, failures, seed,
		       started_at, finished_at
		FROM runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetByScenarioID retrieves all runs of a scenario, ordered by started_at ASC.
func (s *RunStore) GetByScenarioID(ctx context.Context, scenarioID string) ([]*domain.RunRecord, error) {
	query := `
		SELECT run_id, scenario_id, scenario, token, unit_of_time,
		       iterations, repetitions, failures, seed,
		       started_at, finished_at
		FROM runs
		WHERE scenario_id = $1
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("get runs by scenario: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// List retrieves all runs, ordered by started_at ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `
		SELECT run_id, scenario_id, scenario, token, unit_of_time,
		       iterations, repetitions, failures, seed,
		       started_at, finished_at
		FROM runs
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// scanRun scans one run row.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var unit string
	err := row.Scan(
		&r.RunID, &r.ScenarioID, &r.Scenario, &r.Token, &unit,
		&r.Iterations, &r.Repetitions, &r.Failures, &r.Seed,
		&r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	r.UnitOfTime = domain.UnitOfTime(unit)
	return &r, nil
}

// collectRuns scans all rows into records.
func collectRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
	var out []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
