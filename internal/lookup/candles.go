// Package lookup provides point queries over candle time series.
package lookup

import (
	"errors"

	"uniswap-lp-lab/internal/domain"
)

// ErrNoCandleData is returned when a series is empty.
var ErrNoCandleData = errors.New("no candle data available")

// CloseAt returns the close price of the last candle opening at or before
// target (Unix ms). ok is false when the series has no candle at or
// before target; wick detection skips its check in that case.
func CloseAt(target int64, candles []*domain.Candle) (price float64, ok bool) {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].OpenTime <= target {
			return candles[i].Close, true
		}
	}
	return 0, false
}

// First returns the earliest candle. Returns ErrNoCandleData when empty.
func First(candles []*domain.Candle) (*domain.Candle, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandleData
	}
	return candles[0], nil
}

// Last returns the latest candle. Returns ErrNoCandleData when empty.
func Last(candles []*domain.Candle) (*domain.Candle, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandleData
	}
	return candles[len(candles)-1], nil
}
