package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000, Open: 2000, High: 2010, Low: 1990, Close: 2005, Volume: 10},
		{Symbol: "ETHUSDT", OpenTime: 7200000, Open: 2005, High: 2020, Low: 2000, Close: 2015, Volume: 12},
	}
	require.NoError(t, store.InsertBulk(ctx, candles))

	result, err := store.GetByTimeRange(ctx, "ETHUSDT", 0, 10000000)
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, int64(3600000), result[0].OpenTime)
	require.Equal(t, 2015.0, result[1].Close)
}

func TestCandleStore_DuplicateDetection(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := []*domain.Candle{{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2005}}
	require.NoError(t, store.InsertBulk(ctx, candles))

	err := store.InsertBulk(ctx, candles)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCandleStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2005},
		{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2010},
	}

	err := store.InsertBulk(ctx, candles)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCandleStore_LatestOpenTime(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(conn)
	ctx := context.Background()

	_, err := store.LatestOpenTime(ctx, "ETHUSDT")
	require.ErrorIs(t, err, storage.ErrNotFound)

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000},
		{Symbol: "ETHUSDT", OpenTime: 7200000},
		{Symbol: "BTCUSDT", OpenTime: 10800000},
	}
	require.NoError(t, store.InsertBulk(ctx, candles))

	latest, err := store.LatestOpenTime(ctx, "ETHUSDT")
	require.NoError(t, err)
	require.Equal(t, int64(7200000), latest)
}
