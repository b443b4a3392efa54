package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestRebalanceEventStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewRebalanceEventStore(pool)
	ctx := context.Background()

	events := []*domain.RebalanceEvent{
		{RunID: "run-1", Timestamp: 2000, Value: 10010, Price: 2400},
		{RunID: "run-1", Timestamp: 1000, Value: 10000, Price: 2350},
	}
	for _, e := range events {
		require.NoError(t, store.Insert(ctx, e))
	}

	result, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, int64(1000), result[0].Timestamp)
	require.Equal(t, int64(2000), result[1].Timestamp)
}

func TestRebalanceEventStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestRun(t, pool, "run-1")
	store := NewRebalanceEventStore(pool)
	ctx := context.Background()

	event := &domain.RebalanceEvent{RunID: "run-1", Timestamp: 1000, Value: 10000, Price: 2350}
	require.NoError(t, store.Insert(ctx, event))

	err := store.Insert(ctx, event)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}
