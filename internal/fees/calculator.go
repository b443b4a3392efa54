// Package fees computes on-chain fee accrual for a simulated position:
// fee-growth snapshots at two blocks, the growth-inside delta between
// them, and the resulting fees and APR for a capital amount.
package fees

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/big"
	"time"

	"uniswap-lp-lab/internal/blocks"
	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/evm"
	"uniswap-lp-lab/internal/uniswap"
)

// Calculation errors.
var (
	// ErrZeroPrice is returned when the pool reports a zero price.
	ErrZeroPrice = errors.New("invalid price reading (zero)")

	// ErrInvalidPeriod is returned when the snapshots are not in strictly
	// increasing timestamp order.
	ErrInvalidPeriod = errors.New("invalid snapshot period: elapsed seconds must be positive")
)

const secondsPerYear = 365 * 24 * 3600

// q128 is the fee-growth fixed-point scale, 2^128.
var q128 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 128))

// Calculator produces fee-growth snapshots and fee/APR figures for one
// pool. The price range used for fee accounting is re-derived from each
// snapshot's mid price and the configured range factors.
type Calculator struct {
	pool        evm.PoolReader
	lowerFactor float64
	upperFactor float64
	search      blocks.Options
	logger      *log.Logger
}

// New creates a Calculator. searchOpts tunes the timestamp-to-block
// resolution used by CalculateFees.
func New(pool evm.PoolReader, lowerFactor, upperFactor float64, searchOpts blocks.Options, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.Default()
	}
	return &Calculator{
		pool:        pool,
		lowerFactor: lowerFactor,
		upperFactor: upperFactor,
		search:      searchOpts,
		logger:      logger,
	}
}

// SnapshotAt captures pool fee-growth state at a block. When fixedPrice is
// non-nil it replaces the raw price read from slot0; fee-growth counters
// still reflect true chain state at the block.
func (c *Calculator) SnapshotAt(ctx context.Context, block int64, fixedPrice *float64) (*domain.ChainStateSnapshot, error) {
	d0, d1, err := c.pool.TokenDecimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("token decimals: %w", err)
	}

	var rawPrice float64
	if fixedPrice != nil {
		rawPrice = *fixedPrice
	} else {
		rawPrice, err = c.pool.Slot0Price(ctx, block)
		if err != nil {
			return nil, fmt.Errorf("slot0 price: %w", err)
		}
	}
	if rawPrice == 0 {
		return nil, ErrZeroPrice
	}

	// Mid price convention: token1 per token0, decimal adjusted.
	humanPrice := (1.0 / rawPrice) * math.Pow(10, float64(d1-d0))

	rng := domain.RangeAround(humanPrice, c.lowerFactor, c.upperFactor)
	lowerTick := uniswap.TickAtPrice(rng.Lower)
	upperTick := uniswap.TickAtPrice(rng.Upper)

	g0, g1, err := c.pool.FeeGrowthGlobals(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("fee growth globals: %w", err)
	}

	lowerGrowth, err := c.pool.TickFeeGrowthOutside(ctx, block, lowerTick)
	if err != nil {
		return nil, fmt.Errorf("lower tick %d: %w", lowerTick, err)
	}
	upperGrowth, err := c.pool.TickFeeGrowthOutside(ctx, block, upperTick)
	if err != nil {
		return nil, fmt.Errorf("upper tick %d: %w", upperTick, err)
	}

	blockNumber := block
	var blockTS int64
	if block == evm.Latest {
		blockNumber, blockTS, err = c.pool.LatestBlock(ctx)
	} else {
		blockTS, err = c.pool.BlockTimestamp(ctx, block)
	}
	if err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}

	return &domain.ChainStateSnapshot{
		BlockNumber:      blockNumber,
		BlockTimestamp:   blockTS,
		FeeGrowthGlobal0: g0,
		FeeGrowthGlobal1: g1,
		LowerTick:        lowerTick,
		UpperTick:        upperTick,
		LowerTickGrowth:  lowerGrowth,
		UpperTickGrowth:  upperGrowth,
		Token0Decimals:   d0,
		Token1Decimals:   d1,
		RawPrice:         rawPrice,
		HumanPrice:       humanPrice,
	}, nil
}

// GrowthDelta returns the change in fee growth inside the range between
// two snapshots, per token. The difference is taken raw: the underlying
// counters are wrapping uint256 accumulators, so a delta can be negative
// at tick-crossing boundaries. Assumes no wraparound within a backtest
// period.
func (c *Calculator) GrowthDelta(s0, s1 *domain.ChainStateSnapshot) (*big.Int, *big.Int) {
	inside0Start, inside1Start := s0.FeeGrowthInside()
	inside0End, inside1End := s1.FeeGrowthInside()

	delta0 := new(big.Int).Sub(inside0End, inside0Start)
	delta1 := new(big.Int).Sub(inside1End, inside1Start)
	return delta0, delta1
}

// ComputeFeesAndAPR turns the growth delta between s0 and s1 into fees in
// USD and an annualized rate for the given capital. Liquidity is sized at
// liqSnap's prices (raw-price space); decimals come from s1.
func (c *Calculator) ComputeFeesAndAPR(s0, s1, liqSnap *domain.ChainStateSnapshot, capital float64) (*domain.FeeResult, error) {
	delta0, delta1 := c.GrowthDelta(s0, s1)

	d0 := s1.Token0Decimals
	d1 := s1.Token1Decimals

	liquidity, err := uniswap.SizeLiquidityRaw(
		capital,
		liqSnap.RawPrice,
		liqSnap.RawPrice*c.lowerFactor,
		liqSnap.RawPrice*c.upperFactor,
		liqSnap.HumanPrice,
		d0, d1,
	)
	if err != nil {
		return nil, fmt.Errorf("size liquidity: %w", err)
	}

	// Descale X128 growth to per-unit-liquidity token amounts.
	perUnit0, _ := new(big.Float).Quo(new(big.Float).SetInt(delta0), q128).Float64()
	perUnit1, _ := new(big.Float).Quo(new(big.Float).SetInt(delta1), q128).Float64()

	feesToken0Raw := perUnit0 * liquidity
	feesToken1Raw := perUnit1 * liquidity

	feesUSD0 := feesToken0Raw / math.Pow(10, float64(d0))
	feesUSD1 := feesToken1Raw / math.Pow(10, float64(d1)) * liqSnap.HumanPrice
	totalFeesUSD := feesUSD0 + feesUSD1

	periodSeconds := s1.BlockTimestamp - s0.BlockTimestamp
	if periodSeconds <= 0 {
		return nil, ErrInvalidPeriod
	}

	annualization := float64(secondsPerYear) / float64(periodSeconds)
	aprPercent := (totalFeesUSD / capital) * annualization * 100

	return &domain.FeeResult{
		FeesToken0Raw: feesToken0Raw,
		FeesToken1Raw: feesToken1Raw,
		FeesUSD:       totalFeesUSD,
		Liquidity:     liquidity,
		PeriodSeconds: periodSeconds,
		APRPercent:    aprPercent,
	}, nil
}

// CalculateFees computes fees accrued between start and end for capital:
// both timestamps are resolved to blocks, the period-start snapshot fixes
// the price and liquidity reference for the closing side unless an
// explicit closePrice is supplied.
func (c *Calculator) CalculateFees(ctx context.Context, start, end time.Time, capital float64, closePrice *float64) (*domain.FeeResult, error) {
	startBlock, err := blocks.Resolve(ctx, c.pool, start, c.search)
	if err != nil {
		return nil, fmt.Errorf("resolve start block: %w", err)
	}
	endBlock, err := blocks.Resolve(ctx, c.pool, end, c.search)
	if err != nil {
		return nil, fmt.Errorf("resolve end block: %w", err)
	}

	snapshot0, err := c.SnapshotAt(ctx, startBlock, nil)
	if err != nil {
		return nil, fmt.Errorf("start snapshot: %w", err)
	}

	pinnedPrice := closePrice
	if pinnedPrice == nil {
		pinnedPrice = &snapshot0.RawPrice
	}

	snapshot1, err := c.SnapshotAt(ctx, endBlock, pinnedPrice)
	if err != nil {
		return nil, fmt.Errorf("end snapshot: %w", err)
	}

	result, err := c.ComputeFeesAndAPR(snapshot0, snapshot1, snapshot0, capital)
	if err != nil {
		return nil, err
	}

	c.logger.Printf("fees %.6f USD over %ds (blocks %d..%d, apr %.2f%%)",
		result.FeesUSD, result.PeriodSeconds, startBlock, endBlock, result.APRPercent)
	return result, nil
}
