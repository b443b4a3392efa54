package candles

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage/memory"
)

func quietTestLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// countingSource serves a fixed hourly grid and counts upstream calls.
type countingSource struct {
	calls int
}

func (s *countingSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Candle, error) {
	s.calls++
	var out []*domain.Candle
	for ts := start.UnixMilli(); ts <= end.UnixMilli(); ts += domain.CandleIntervalMs {
		out = append(out, &domain.Candle{
			Symbol:   symbol,
			OpenTime: ts,
			Open:     2000,
			High:     2001,
			Low:      1999,
			Close:    2000,
			Volume:   1,
		})
	}
	return out, nil
}

func TestCachedSource_MissThenHit(t *testing.T) {
	upstream := &countingSource{}
	cached := NewCachedSource(upstream, memory.NewCandleStore(), quietTestLogger())

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(9 * time.Hour)

	first, err := cached.Fetch(context.Background(), "ETHUSDT", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 10 {
		t.Fatalf("expected 10 bars, got %d", len(first))
	}
	if upstream.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", upstream.calls)
	}

	second, err := cached.Fetch(context.Background(), "ETHUSDT", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 10 {
		t.Fatalf("expected 10 cached bars, got %d", len(second))
	}
	if upstream.calls != 1 {
		t.Errorf("cache hit still called upstream: %d calls", upstream.calls)
	}
}

func TestCachedSource_ExtendsPartialCoverage(t *testing.T) {
	upstream := &countingSource{}
	cached := NewCachedSource(upstream, memory.NewCandleStore(), quietTestLogger())

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := cached.Fetch(context.Background(), "ETHUSDT", start, start.Add(4*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A wider window is not covered by the cached edge, so the upstream is
	// queried again and only the new rows are persisted.
	wider, err := cached.Fetch(context.Background(), "ETHUSDT", start, start.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wider) != 10 {
		t.Fatalf("expected 10 bars, got %d", len(wider))
	}
	if upstream.calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", upstream.calls)
	}

	for i := 1; i < len(wider); i++ {
		if wider[i].OpenTime != wider[i-1].OpenTime+domain.CandleIntervalMs {
			t.Fatalf("merged series has a gap at index %d", i)
		}
	}

	// The widened window is now fully cached.
	if _, err := cached.Fetch(context.Background(), "ETHUSDT", start, start.Add(9*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 2 {
		t.Errorf("extended window not served from cache: %d calls", upstream.calls)
	}
}

func TestCachedSource_SymbolsAreIsolated(t *testing.T) {
	upstream := &countingSource{}
	cached := NewCachedSource(upstream, memory.NewCandleStore(), quietTestLogger())

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	if _, err := cached.Fetch(context.Background(), "ETHUSDT", start, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cached.Fetch(context.Background(), "BTCUSDT", start, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 2 {
		t.Errorf("expected one upstream call per symbol, got %d", upstream.calls)
	}
}
