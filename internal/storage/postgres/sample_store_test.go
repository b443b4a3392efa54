package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func insertTestRun(t *testing.T, pool *Pool, runID string) {
	t.Helper()
	store := NewRunStore(pool)
	run := &domain.Run{RunID: runID, Pool: "0xpool", Chain: "ethereum", Symbol: "ETHUSDT"}
	require.NoError(t, store.Insert(context.Background(), run))
}

func TestSampleStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewSampleStore(pool)
	ctx := context.Background()

	samples := []*domain.Sample{
		{RunID: "run-1", Timestamp: 1000, Value: 10000, Price: 2000},
		{RunID: "run-1", Timestamp: 2000, Value: 10010, Price: 2010},
	}
	require.NoError(t, store.InsertBulk(ctx, samples))

	result, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, int64(1000), result[0].Timestamp)
	require.Equal(t, 2010.0, result[1].Price)
}

func TestSampleStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewSampleStore(pool)
	ctx := context.Background()

	sample := &domain.Sample{RunID: "run-1", Timestamp: 1000, Value: 10000}
	require.NoError(t, store.Insert(ctx, sample))

	err := store.Insert(ctx, sample)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSampleStore_BulkRollbackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewSampleStore(pool)
	ctx := context.Background()

	samples := []*domain.Sample{
		{RunID: "run-1", Timestamp: 1000, Value: 10000},
		{RunID: "run-1", Timestamp: 1000, Value: 10050}, // duplicate key
	}

	err := store.InsertBulk(ctx, samples)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Empty(t, result, "batch must roll back entirely")
}

func TestSampleStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewSampleStore(pool)
	ctx := context.Background()

	samples := []*domain.Sample{
		{RunID: "run-1", Timestamp: 1000, Value: 10000},
		{RunID: "run-1", Timestamp: 2000, Value: 10010},
		{RunID: "run-1", Timestamp: 3000, Value: 10020},
	}
	require.NoError(t, store.InsertBulk(ctx, samples))

	result, err := store.GetByTimeRange(ctx, "run-1", 1500, 2500)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, int64(2000), result[0].Timestamp)
}
