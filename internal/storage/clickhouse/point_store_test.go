package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tokensim/internal/domain"
	"tokensim/internal/storage"
	chstore "tokensim/internal/storage/clickhouse"
)

func TestPointStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPointStore(conn)
	ctx := context.Background()

	points := []*domain.Point{
		{RunID: "run-1", Variable: "gem_price", Repetition: 1, Step: 0, Value: 0.5},
		{RunID: "run-1", Variable: "gem_price", Repetition: 0, Step: 1, Value: 0.4},
		{RunID: "run-1", Variable: "gem_price", Repetition: 0, Step: 0, Value: 0.3},
		{RunID: "run-1", Variable: "gem_supply", Repetition: 0, Step: 0, Value: 1e6},
		{RunID: "run-2", Variable: "gem_price", Repetition: 0, Step: 0, Value: 9.9},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRunVariable(ctx, "run-1", "gem_price")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by repetition, step ASC.
	require.Equal(t, 0, got[0].Repetition)
	require.Equal(t, 0, got[0].Step)
	require.Equal(t, 0.3, got[0].Value)
	require.Equal(t, 0, got[1].Repetition)
	require.Equal(t, 1, got[1].Step)
	require.Equal(t, 1, got[2].Repetition)
	require.Equal(t, 0, got[2].Step)
}

func TestPointStore_GetByRunVariable_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPointStore(conn)

	got, err := store.GetByRunVariable(context.Background(), "missing", "gem_price")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPointStore_InsertBulk_Validation(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPointStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, nil))

	err := store.InsertBulk(ctx, []*domain.Point{
		{RunID: "", Variable: "gem_price", Value: 1},
	})
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBulk(ctx, []*domain.Point{
		{RunID: "run-1", Variable: "", Value: 1},
	})
	require.ErrorIs(t, err, storage.ErrInvalidInput)
}
