// Package domain holds the value types shared across the backtest lab:
// chain-state snapshots, positions, candles and recorded run output.
package domain

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a price range is inverted or non-positive.
var ErrInvalidRange = errors.New("invalid price range: bounds must be positive and lower < upper")

// PriceRange is a concentrated-liquidity price band in human prices.
type PriceRange struct {
	Lower float64
	Upper float64
}

// RangeAround derives a range from a center price and multiplicative factors.
func RangeAround(price, lowerFactor, upperFactor float64) PriceRange {
	return PriceRange{
		Lower: price * lowerFactor,
		Upper: price * upperFactor,
	}
}

// Validate checks the range invariant: 0 < Lower < Upper.
func (r PriceRange) Validate() error {
	if r.Lower <= 0 || r.Upper <= 0 || r.Lower >= r.Upper {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether p lies inside the range (exclusive bounds).
func (r PriceRange) Contains(p float64) bool {
	return p > r.Lower && p < r.Upper
}

// Clamp returns p limited to [Lower, Upper].
func (r PriceRange) Clamp(p float64) float64 {
	if p < r.Lower {
		return r.Lower
	}
	if p > r.Upper {
		return r.Upper
	}
	return p
}

// Position is an open concentrated-liquidity position. It is owned
// exclusively by the lifecycle manager; a nil *Position means no position.
type Position struct {
	OpenPrice       float64
	Range           PriceRange
	OpenTimestamp   time.Time // always UTC
	CapitalDeployed float64
	Liquidity       float64 // the sizing constant L, human units
}
