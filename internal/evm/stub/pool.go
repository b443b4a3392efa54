// Package stub provides a deterministic in-memory PoolReader for tests:
// uniform block spacing from genesis plus scripted per-block pool state.
package stub

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/evm"
)

// ErrNoState is returned when no state is scripted at or before a block.
var ErrNoState = errors.New("no pool state scripted for block")

// PoolState is the scripted pool state effective from a given block.
type PoolState struct {
	RawPrice         float64
	FeeGrowthGlobal0 *big.Int
	FeeGrowthGlobal1 *big.Int
	// TickGrowth maps tick index to its fee-growth-outside accumulators.
	// Unscripted ticks read as zero, like uninitialized ticks on-chain.
	TickGrowth map[int]domain.TickFeeGrowth
}

// PoolReader implements evm.PoolReader with synthetic chain data:
// block n has timestamp GenesisTime + n*BlockTime.
type PoolReader struct {
	GenesisTime int64 // timestamp of block 0, Unix seconds
	BlockTime   int64 // seconds per block
	Head        int64 // latest block number
	Decimals0   int
	Decimals1   int

	mu sync.RWMutex
	// states maps a starting block number to the state effective from it.
	states map[int64]*PoolState

	// Calls counts chain reads, for asserting probe budgets.
	Calls int
}

// NewPoolReader creates a stub chain with 18/6 decimal tokens (the
// WETH/USDC shape) and the given uniform spacing.
func NewPoolReader(genesisTime, blockTime, head int64) *PoolReader {
	return &PoolReader{
		GenesisTime: genesisTime,
		BlockTime:   blockTime,
		Head:        head,
		Decimals0:   18,
		Decimals1:   6,
		states:      make(map[int64]*PoolState),
	}
}

// SetState scripts the pool state effective from a block number onward.
func (p *PoolReader) SetState(fromBlock int64, state *PoolState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[fromBlock] = state
}

// stateAt returns the scripted state with the highest starting block not
// after the requested block.
func (p *PoolReader) stateAt(block int64) (*PoolState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if block == evm.Latest {
		block = p.Head
	}

	var best int64 = -1
	for from := range p.states {
		if from <= block && from > best {
			best = from
		}
	}
	if best < 0 {
		return nil, ErrNoState
	}
	return p.states[best], nil
}

func (p *PoolReader) resolve(block int64) int64 {
	if block == evm.Latest {
		return p.Head
	}
	return block
}

// LatestBlock returns the stub head.
func (p *PoolReader) LatestBlock(_ context.Context) (int64, int64, error) {
	p.Calls++
	return p.Head, p.GenesisTime + p.Head*p.BlockTime, nil
}

// BlockTimestamp returns GenesisTime + number*BlockTime.
func (p *PoolReader) BlockTimestamp(_ context.Context, number int64) (int64, error) {
	p.Calls++
	if number < 0 || number > p.Head {
		return 0, errors.New("block out of range")
	}
	return p.GenesisTime + number*p.BlockTime, nil
}

// Slot0Price returns the scripted raw price.
func (p *PoolReader) Slot0Price(_ context.Context, block int64) (float64, error) {
	p.Calls++
	state, err := p.stateAt(block)
	if err != nil {
		return 0, err
	}
	return state.RawPrice, nil
}

// FeeGrowthGlobals returns the scripted global accumulators.
func (p *PoolReader) FeeGrowthGlobals(_ context.Context, block int64) (*big.Int, *big.Int, error) {
	p.Calls++
	state, err := p.stateAt(block)
	if err != nil {
		return nil, nil, err
	}
	return state.FeeGrowthGlobal0, state.FeeGrowthGlobal1, nil
}

// TickFeeGrowthOutside returns the scripted tick accumulators, or zeroes
// for unscripted ticks.
func (p *PoolReader) TickFeeGrowthOutside(_ context.Context, block int64, tick int) (domain.TickFeeGrowth, error) {
	p.Calls++
	state, err := p.stateAt(block)
	if err != nil {
		return domain.TickFeeGrowth{}, err
	}
	if g, ok := state.TickGrowth[tick]; ok {
		return g, nil
	}
	return domain.TickFeeGrowth{
		Outside0: new(big.Int),
		Outside1: new(big.Int),
	}, nil
}

// TokenDecimals returns the configured decimal counts.
func (p *PoolReader) TokenDecimals(_ context.Context) (int, int, error) {
	p.Calls++
	return p.Decimals0, p.Decimals1, nil
}

// Ensure PoolReader implements evm.PoolReader
var _ evm.PoolReader = (*PoolReader)(nil)
