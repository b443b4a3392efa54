package domain

import "math/big"

// TickFeeGrowth holds the fee-growth-outside accumulators read from one
// initialized pool tick. Values are raw X128 fixed-point counters.
type TickFeeGrowth struct {
	Outside0 *big.Int // feeGrowthOutside0X128
	Outside1 *big.Int // feeGrowthOutside1X128
}

// ChainStateSnapshot captures pool fee-growth state at a single block.
// Snapshots are value objects: created once per read, never mutated.
type ChainStateSnapshot struct {
	BlockNumber    int64
	BlockTimestamp int64 // Unix timestamp (seconds)

	// Global per-liquidity fee accumulators, X128 fixed-point. Monotonic
	// modulo uint256 wraparound; stored as big.Int so raw differences keep
	// their sign.
	FeeGrowthGlobal0 *big.Int
	FeeGrowthGlobal1 *big.Int

	// Range ticks derived from the snapshot's human mid price and the
	// configured range factors.
	LowerTick int
	UpperTick int

	LowerTickGrowth TickFeeGrowth
	UpperTickGrowth TickFeeGrowth

	Token0Decimals int
	Token1Decimals int

	// RawPrice is the squared price ratio before decimal adjustment
	// (sqrtPriceX96^2 / 2^192), or a caller-supplied override.
	RawPrice float64

	// HumanPrice is the decimal-adjusted mid price, quote per base:
	// (1/RawPrice) * 10^(Token1Decimals-Token0Decimals).
	HumanPrice float64
}

// FeeGrowthInside returns the fee growth inside the snapshot's range for
// each pool token: global minus outside at both boundary ticks.
func (s *ChainStateSnapshot) FeeGrowthInside() (*big.Int, *big.Int) {
	inside0 := new(big.Int).Sub(s.FeeGrowthGlobal0, s.LowerTickGrowth.Outside0)
	inside0.Sub(inside0, s.UpperTickGrowth.Outside0)

	inside1 := new(big.Int).Sub(s.FeeGrowthGlobal1, s.LowerTickGrowth.Outside1)
	inside1.Sub(inside1, s.UpperTickGrowth.Outside1)

	return inside0, inside1
}
