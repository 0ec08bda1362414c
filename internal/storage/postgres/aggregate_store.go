package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// AggregateStore implements storage.AggregateStore using PostgreSQL.
type AggregateStore struct {
	pool *Pool
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(pool *Pool) *AggregateStore {
	return &AggregateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// InsertBulk adds the aggregates of one run atomically. Fails the
// entire batch on any duplicate (run_id, variable, step).
func (s *AggregateStore) InsertBulk(ctx context.Context, stats []*domain.VariableStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO variable_aggregates (
			run_id, variable, step,
			mean, median, stddev, p10, p90, min_value, max_value
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9, $10
		)
	`

	for _, st := range stats {
		if st == nil || st.RunID == "" || st.Variable == "" {
			return fmt.Errorf("%w: aggregate missing run_id or variable", storage.ErrInvalidInput)
		}
		_, err := tx.Exec(ctx, query,
			st.RunID, st.Variable, st.Step,
			st.Mean, st.Median, st.Stddev, st.P10, st.P90, st.Min, st.Max,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert aggregate in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all aggregates of a run, ordered by variable, step ASC.
func (s *AggregateStore) GetByRun(ctx context.Context, runID string) ([]*domain.VariableStats, error) {
	query := `
		SELECT run_id, variable, step,
		       mean, median, stddev, p10, p90, min_value, max_value
		FROM variable_aggregates
		WHERE run_id = $1
		ORDER BY variable ASC, step ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get aggregates by run: %w", err)
	}
	defer rows.Close()

	return collectStats(rows)
}

// GetByVariable retrieves one variable's aggregates for a run, ordered by step ASC.
func (s *AggregateStore) GetByVariable(ctx context.Context, runID, variable string) ([]*domain.VariableStats, error) {
	query := `
		SELECT run_id, variable, step,
		       mean, median, stddev, p10, p90, min_value, max_value
		FROM variable_aggregates
		WHERE run_id = $1 AND variable = $2
		ORDER BY step ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, variable)
	if err != nil {
		return nil, fmt.Errorf("get aggregates by variable: %w", err)
	}
	defer rows.Close()

	return collectStats(rows)
}

// collectStats scans all rows into aggregates.
func collectStats(rows pgx.Rows) ([]*domain.VariableStats, error) {
	var out []*domain.VariableStats
	for rows.Next() {
		var st domain.VariableStats
		err := rows.Scan(
			&st.RunID, &st.Variable, &st.Step,
			&st.Mean, &st.Median, &st.Stddev, &st.P10, &st.P90, &st.Min, &st.Max,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	return out, nil
}
