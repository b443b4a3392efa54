// Package uniswap implements the concentrated-liquidity math used by the
// backtest: tick conversion, liquidity sizing and position valuation.
package uniswap

import "math"

// tickBase is the geometric tick spacing factor: 0.01% per tick.
const tickBase = 1.0001

var logTickBase = math.Log(tickBase)

// TickAtPrice converts a price to its tick index:
// floor(log(price) / log(1.0001)). Monotonically non-decreasing in price.
func TickAtPrice(price float64) int {
	return int(math.Floor(math.Log(price) / logTickBase))
}

// PriceAtTick is the inverse grid point: 1.0001^tick.
func PriceAtTick(tick int) float64 {
	return math.Pow(tickBase, float64(tick))
}
