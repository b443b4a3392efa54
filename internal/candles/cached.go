package candles

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// CachedSource serves candles from a CandleStore and falls back to an
// upstream Source for anything missing. Fetched candles are persisted so
// repeated backtests over the same window hit the exchange once.
type CachedSource struct {
	upstream Source
	store    storage.CandleStore
	logger   *log.Logger
}

// NewCachedSource creates a cached source over upstream and store.
func NewCachedSource(upstream Source, store storage.CandleStore, logger *log.Logger) *CachedSource {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedSource{
		upstream: upstream,
		store:    store,
		logger:   logger,
	}
}

var _ Source = (*CachedSource)(nil)

// Fetch returns raw candles for [start, end]. The cache is consulted first;
// when it does not cover the window the upstream is queried for the full
// window and new rows are persisted.
func (s *CachedSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Candle, error) {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	cached, err := s.store.GetByTimeRange(ctx, symbol, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("read candle cache: %w", err)
	}

	if covers(cached, startMs, endMs) {
		s.logger.Printf("candle cache hit: %s %d rows", symbol, len(cached))
		return cached, nil
	}

	fetched, err := s.upstream.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	known := make(map[int64]struct{}, len(cached))
	for _, c := range cached {
		known[c.OpenTime] = struct{}{}
	}

	var fresh []*domain.Candle
	for _, c := range fetched {
		if _, ok := known[c.OpenTime]; !ok {
			fresh = append(fresh, c)
		}
	}

	if len(fresh) > 0 {
		if err := s.store.InsertBulk(ctx, fresh); err != nil {
			// A concurrent writer may have filled the gap. The fetched data
			// is still good, so log and serve it.
			s.logger.Printf("persist candles for %s: %v", symbol, err)
		} else {
			s.logger.Printf("cached %d new candles for %s", len(fresh), symbol)
		}
	}

	merged := append(cached, fresh...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].OpenTime < merged[j].OpenTime })
	return merged, nil
}

// covers reports whether cached rows reach both edges of the hourly grid
// spanned by [startMs, endMs]. Interior gaps are left to Normalize.
func covers(cached []*domain.Candle, startMs, endMs int64) bool {
	if len(cached) == 0 {
		return false
	}
	firstBucket := (startMs / domain.CandleIntervalMs) * domain.CandleIntervalMs
	lastBucket := (endMs / domain.CandleIntervalMs) * domain.CandleIntervalMs
	return cached[0].OpenTime <= firstBucket+domain.CandleIntervalMs-1 &&
		cached[len(cached)-1].OpenTime >= lastBucket
}
