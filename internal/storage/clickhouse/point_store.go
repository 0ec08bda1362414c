package clickhouse

import (
	"context"
	"fmt"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
)

// PointStore implements storage.PointStore using ClickHouse.
type PointStore struct {
	conn *Conn
}

// NewPointStore creates a new PointStore.
func NewPointStore(conn *Conn) *PointStore {
	return &PointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PointStore = (*PointStore)(nil)

// InsertBulk adds the raw points of one run in a single batch.
// MergeTree does not enforce uniqueness, so the caller is expected to
// write each run's points exactly once.
func (s *PointStore) InsertBulk(ctx context.Context, points []*domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.RunID == "" || p.Variable == "" {
			return fmt.Errorf("%w: point missing run_id or variable", storage.ErrInvalidInput)
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO points (
			run_id, variable, repetition, step, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.RunID, p.Variable, uint32(p.Repetition), uint32(p.Step), p.Value,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunVariable retrieves one variable's points for a run, ordered
// by repetition, step ASC.
func (s *PointStore) GetByRunVariable(ctx context.Context, runID, variable string) ([]*domain.Point, error) {
	query := `
		SELECT run_id, variable, repetition, step, value
		FROM points
		WHERE run_id = ? AND variable = ?
		ORDER BY repetition ASC, step ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, variable)
	if err != nil {
		return nil, fmt.Errorf("query points by run and variable: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPoints scans multiple rows into a slice.
func scanPoints(rows chRows) ([]*domain.Point, error) {
	var points []*domain.Point

	for rows.Next() {
		var p domain.Point
		var repetition, step uint32

		err := rows.Scan(&p.RunID, &p.Variable, &repetition, &step, &p.Value)
		if err != nil {
			return nil, fmt.Errorf("scan point row: %w", err)
		}

		p.Repetition = int(repetition)
		p.Step = int(step)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate point rows: %w", err)
	}

	return points, nil
}
