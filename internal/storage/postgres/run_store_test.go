package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
	pgstore "tokensim/internal/storage/postgres"
)

func testRun(runID, scenarioID string, startedAt time.Time) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:       runID,
		ScenarioID:  scenarioID,
		Scenario:    "baseline",
		Token:       "gem",
		UnitOfTime:  domain.UnitDay,
		Iterations:  365,
		Repetitions: 30,
		Failures:    1,
		Seed:        42,
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(3 * time.Second),
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)
	ctx := context.Background()

	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	run := testRun("run-1", "scenario-a", started)
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "scenario-a", got.ScenarioID)
	require.Equal(t, "gem", got.Token)
	require.Equal(t, domain.UnitDay, got.UnitOfTime)
	require.Equal(t, 365, got.Iterations)
	require.Equal(t, 30, got.Repetitions)
	require.Equal(t, 1, got.Failures)
	require.Equal(t, int64(42), got.Seed)
	require.True(t, got.StartedAt.Equal(started))
}

func TestRunStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)
	ctx := context.Background()

	run := testRun("run-1", "scenario-a", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetByScenarioID_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testRun("run-b", "scenario-a", base.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, testRun("run-a", "scenario-a", base)))
	require.NoError(t, store.Insert(ctx, testRun("run-c", "scenario-other", base)))

	got, err := store.GetByScenarioID(ctx, "scenario-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "run-a", got[0].RunID)
	require.Equal(t, "run-b", got[1].RunID)
}

func TestRunStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testRun("run-1", "scenario-a", base)))
	require.NoError(t, store.Insert(ctx, testRun("run-2", "scenario-b", base.Add(time.Minute))))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "run-1", got[0].RunID)
	require.Equal(t, "run-2", got[1].RunID)
}

func TestRunStore_Insert_Invalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewRunStore(pool)

	err := store.Insert(context.Background(), &domain.RunRecord{})
	require.ErrorIs(t, err, storage.ErrInvalidInput)
}
