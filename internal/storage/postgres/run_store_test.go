package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.Run{
		RunID:          "run-1",
		Pool:           "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
		Chain:          "ethereum",
		Symbol:         "ETHUSDT",
		StartTime:      1700000000,
		EndTime:        1700086400,
		InitialCapital: 10000,
		FinalValue:     10250.5,
		RebalanceCount: 3,
		CreatedAt:      1700090000,
	}

	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, run.Pool, got.Pool)
	require.Equal(t, run.FinalValue, got.FinalValue)
	require.Equal(t, run.RebalanceCount, got.RebalanceCount)
}

func TestRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := &domain.Run{RunID: "run-1", Pool: "0xpool", Chain: "ethereum", Symbol: "ETHUSDT"}
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetByPool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	runs := []*domain.Run{
		{RunID: "run-2", Pool: "0xa", Chain: "base", Symbol: "ETHUSDT", CreatedAt: 2000},
		{RunID: "run-1", Pool: "0xa", Chain: "base", Symbol: "ETHUSDT", CreatedAt: 1000},
		{RunID: "run-3", Pool: "0xb", Chain: "base", Symbol: "ETHUSDT", CreatedAt: 1500},
	}
	for _, r := range runs {
		require.NoError(t, store.Insert(ctx, r))
	}

	result, err := store.GetByPool(ctx, "0xa")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "run-1", result[0].RunID)
	require.Equal(t, "run-2", result[1].RunID)
}
