// Package candles supplies the historical hourly price series driving the
// backtest: a Binance klines REST fetcher with bounded retry, hourly
// normalization with gap-fill, a store-backed cache and a live websocket
// tail.
package candles

import (
	"context"
	"errors"
	"time"

	"uniswap-lp-lab/internal/domain"
)

// ErrNoData is returned when the exchange returns no candles for a range.
var ErrNoData = errors.New("no price data returned for range")

// Source provides an ordered, hourly, gap-filled candle series covering
// [start, end].
type Source interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Candle, error)
}

// RetryPolicy is the bounded fixed-delay retry applied around exchange
// requests. It lives here, at the collaborator, not in the core loop.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy mirrors the exchange defaults: 3 attempts, 1s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}
