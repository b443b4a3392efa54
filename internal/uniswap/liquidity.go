package uniswap

import (
	"errors"
	"math"
)

// Sizing and valuation errors.
var (
	// ErrInvalidRange is returned when the range is inverted or the
	// reference price is non-positive.
	ErrInvalidRange = errors.New("invalid range: price must be positive and lower < upper")

	// ErrDegenerateRange is returned when the sizing denominator is exactly
	// zero. Failing loudly here avoids silently minting infinite liquidity.
	ErrDegenerateRange = errors.New("degenerate range: liquidity denominator is zero")
)

// SizeLiquidity computes the liquidity L mintable for capital at price p
// inside [pa, pb], all in human (decimal-adjusted) prices:
//
//	L = capital / ((1/sqrt(p) - 1/sqrt(pb)) * p + (sqrt(p) - sqrt(pa)))
//
// The first term is the quote cost of the token0 leg, the second the
// quote cost of the token1 leg.
func SizeLiquidity(capital, p, pa, pb float64) (float64, error) {
	if p <= 0 {
		return 0, ErrInvalidRange
	}
	if pa >= pb {
		return 0, ErrInvalidRange
	}

	token0Cost := (1.0/math.Sqrt(p) - 1.0/math.Sqrt(pb)) * p
	token1Cost := math.Sqrt(p) - math.Sqrt(pa)
	denom := token0Cost + token1Cost
	if denom == 0 {
		return 0, ErrDegenerateRange
	}

	return capital / denom, nil
}

// SizeLiquidityRaw computes liquidity in the raw on-chain price space used
// by fee accounting: p is the raw squared price ratio, humanPrice converts
// the token1 leg to quote, and the per-token decimal scales line up with
// the X128 fee-growth units.
func SizeLiquidityRaw(capital, p, pa, pb, humanPrice float64, token0Decimals, token1Decimals int) (float64, error) {
	if p <= 0 {
		return 0, ErrInvalidRange
	}
	if pa >= pb {
		return 0, ErrInvalidRange
	}

	sqrtP := math.Sqrt(p)
	sqrtPa := math.Sqrt(pa)
	sqrtPb := math.Sqrt(pb)

	token0Cost := ((sqrtPb - sqrtP) / (sqrtP * sqrtPb)) / math.Pow(10, float64(token0Decimals))
	token1Cost := (sqrtP - sqrtPa) * humanPrice / math.Pow(10, float64(token1Decimals))
	denom := token0Cost + token1Cost
	if denom == 0 {
		return 0, ErrDegenerateRange
	}

	return capital / denom, nil
}

// PositionValue marks a position of liquidity L in [pa, pb] to market at
// price p, in quote units. Piecewise by where p sits relative to the range;
// the three formulas agree at both seams.
func PositionValue(liquidity, pa, pb, p float64) float64 {
	switch {
	case p <= pa:
		// Fully in the base asset.
		baseTokens := liquidity * (1.0/math.Sqrt(pa) - 1.0/math.Sqrt(pb))
		return baseTokens * p
	case p >= pb:
		// Fully in the quote asset.
		return liquidity * (math.Sqrt(pb) - math.Sqrt(pa))
	default:
		baseTokens := liquidity * (1.0/math.Sqrt(p) - 1.0/math.Sqrt(pb))
		quoteTokens := liquidity * (math.Sqrt(p) - math.Sqrt(pa))
		return baseTokens*p + quoteTokens
	}
}
