// Package evm provides read-only access to Uniswap v3 pool state over
// EVM JSON-RPC: block headers, slot0 price, fee-growth accumulators and
// per-tick fee-growth-outside values.
package evm

import (
	"context"
	"errors"
	"math/big"

	"uniswap-lp-lab/internal/domain"
)

// Latest is the block sentinel for "as of the chain head".
const Latest int64 = -1

// ErrUpstream wraps transport-level failures so callers can distinguish an
// unavailable node from a semantic error.
var ErrUpstream = errors.New("upstream unavailable")

// PoolReader is the capability interface over on-chain pool state. All
// reads that accept a block number also accept Latest.
type PoolReader interface {
	// LatestBlock returns the head block number and its timestamp (seconds).
	LatestBlock(ctx context.Context) (number, timestamp int64, err error)

	// BlockTimestamp returns the timestamp (seconds) of a block.
	BlockTimestamp(ctx context.Context, number int64) (int64, error)

	// Slot0Price returns the raw squared price ratio at a block:
	// sqrtPriceX96^2 / 2^192, before decimal adjustment.
	Slot0Price(ctx context.Context, block int64) (float64, error)

	// FeeGrowthGlobals returns feeGrowthGlobal0X128 and feeGrowthGlobal1X128
	// at a block.
	FeeGrowthGlobals(ctx context.Context, block int64) (*big.Int, *big.Int, error)

	// TickFeeGrowthOutside returns the fee-growth-outside accumulators of
	// one tick at a block.
	TickFeeGrowthOutside(ctx context.Context, block int64, tick int) (domain.TickFeeGrowth, error)

	// TokenDecimals returns the decimal counts of token0 and token1.
	TokenDecimals(ctx context.Context) (d0, d1 int, err error)
}
