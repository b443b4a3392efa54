package memory

import (
	"context"
	"errors"
	"testing"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000, Open: 2000, High: 2010, Low: 1990, Close: 2005, Volume: 10},
		{Symbol: "ETHUSDT", OpenTime: 7200000, Open: 2005, High: 2020, Low: 2000, Close: 2015, Volume: 12},
	}

	if err := store.InsertBulk(ctx, candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "ETHUSDT", 0, 10000000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("Expected 2 candles, got %d", len(result))
	}
}

func TestCandleStore_DuplicateKey(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []*domain.Candle{{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2005}}

	if err := store.InsertBulk(ctx, candles); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, candles)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestCandleStore_IntraBatchDuplicate(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2005},
		{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2010}, // duplicate key
	}

	err := store.InsertBulk(ctx, candles)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	result, _ := store.GetByTimeRange(ctx, "ETHUSDT", 0, 10000000)
	if len(result) != 0 {
		t.Errorf("Expected 0 candles (rollback), got %d", len(result))
	}
}

func TestCandleStore_GetByTimeRangeOrdering(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 10800000, Close: 2030},
		{Symbol: "ETHUSDT", OpenTime: 3600000, Close: 2005},
		{Symbol: "ETHUSDT", OpenTime: 7200000, Close: 2015},
		{Symbol: "BTCUSDT", OpenTime: 7200000, Close: 40000}, // different symbol
	}

	if err := store.InsertBulk(ctx, candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "ETHUSDT", 3600000, 10800000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(result))
	}
	for i := 1; i < len(result); i++ {
		if result[i].OpenTime < result[i-1].OpenTime {
			t.Errorf("Results not ordered: %d < %d", result[i].OpenTime, result[i-1].OpenTime)
		}
	}
}

func TestCandleStore_LatestOpenTime(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	_, err := store.LatestOpenTime(ctx, "ETHUSDT")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty store, got %v", err)
	}

	candles := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: 3600000},
		{Symbol: "ETHUSDT", OpenTime: 7200000},
		{Symbol: "BTCUSDT", OpenTime: 10800000},
	}
	if err := store.InsertBulk(ctx, candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	latest, err := store.LatestOpenTime(ctx, "ETHUSDT")
	if err != nil {
		t.Fatalf("LatestOpenTime failed: %v", err)
	}
	if latest != 7200000 {
		t.Errorf("Expected latest 7200000, got %d", latest)
	}
}

func TestCandleStore_InvalidInput(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Candle{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil candle, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.Candle{{Symbol: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty symbol, got %v", err)
	}
}
