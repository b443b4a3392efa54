// Package position owns the simulated liquidity position lifecycle:
// open, close with slippage and accrued fees, and the composite
// rebalance.
package position

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/uniswap"
)

// FeeCalculator computes fees accrued over a holding period. Implemented
// by fees.Calculator; abstracted so lifecycle logic tests without a chain.
type FeeCalculator interface {
	CalculateFees(ctx context.Context, start, end time.Time, capital float64, closePrice *float64) (*domain.FeeResult, error)
}

// Config holds the lifecycle parameters, injected read-only.
type Config struct {
	LowerBoundFactor float64
	UpperBoundFactor float64
	SlippageFactor   float64 // one-sided haircut applied on close
}

// Manager owns at most one open position and the running capital.
// Capital is mutated only by a successful close. All operations leave
// state untouched on failure.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	fees    FeeCalculator
	logger  *log.Logger
	capital float64
	pos     *domain.Position // nil when no position is open
}

// NewManager creates a lifecycle manager with the given starting capital.
func NewManager(initialCapital float64, cfg Config, fees FeeCalculator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		cfg:     cfg,
		fees:    fees,
		logger:  logger,
		capital: initialCapital,
	}
}

// Open opens a position around price with the full current capital.
// No-op error if a position is already open.
func (m *Manager) Open(_ context.Context, price float64, ts time.Time) (domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pos != nil {
		return domain.Position{}, fmt.Errorf("position already open at %.4f", m.pos.OpenPrice)
	}

	pos, err := m.build(m.capital, price, ts)
	if err != nil {
		return domain.Position{}, err
	}

	m.pos = pos
	m.logger.Printf("opened position at %s (price=%.4f), range=(%.4f,%.4f), L=%.6f, capital=%.2f",
		pos.OpenTimestamp.Format(time.RFC3339), price, pos.Range.Lower, pos.Range.Upper, pos.Liquidity, pos.CapitalDeployed)
	return *pos, nil
}

// build sizes a new position without mutating manager state.
func (m *Manager) build(capital, price float64, ts time.Time) (*domain.Position, error) {
	if price <= 0 {
		return nil, domain.ErrInvalidRange
	}

	rng := domain.RangeAround(price, m.cfg.LowerBoundFactor, m.cfg.UpperBoundFactor)
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	// Size at a reference clamped into the range: an out-of-range
	// reference would mint a one-sided position at the wrong price.
	reference := rng.Clamp(price)
	liquidity, err := uniswap.SizeLiquidity(capital, reference, rng.Lower, rng.Upper)
	if err != nil {
		return nil, err
	}

	return &domain.Position{
		OpenPrice:       price,
		Range:           rng,
		OpenTimestamp:   ts.UTC(),
		CapitalDeployed: capital,
		Liquidity:       liquidity,
	}, nil
}

// Close closes the open position: mark-to-market value with a one-sided
// slippage haircut, plus fees accrued over the holding period, becomes
// the new capital. Returns the current capital unchanged if no position
// is open.
func (m *Manager) Close(ctx context.Context, price float64, ts time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pos == nil {
		m.logger.Printf("no active position to close")
		return m.capital, nil
	}

	newCapital, err := m.settle(ctx, price, ts)
	if err != nil {
		return 0, err
	}

	m.capital = newCapital
	m.pos = nil
	return m.capital, nil
}

// settle computes the post-close capital without mutating state.
func (m *Manager) settle(ctx context.Context, price float64, ts time.Time) (float64, error) {
	grossValue := uniswap.PositionValue(m.pos.Liquidity, m.pos.Range.Lower, m.pos.Range.Upper, price)
	netValue := grossValue * (1.0 - m.cfg.SlippageFactor)

	m.logger.Printf("closing position at %s, price=%.4f: value %.2f before slippage, %.2f after (factor %g)",
		ts.UTC().Format(time.RFC3339), price, grossValue, netValue, m.cfg.SlippageFactor)

	feeResult, err := m.fees.CalculateFees(ctx, m.pos.OpenTimestamp, ts.UTC(), m.capital, &price)
	if err != nil {
		return 0, fmt.Errorf("period fees: %w", err)
	}
	m.logger.Printf("accrued fees for the period: %.2f USD", feeResult.FeesUSD)

	return netValue + feeResult.FeesUSD, nil
}

// Rebalance closes the open position and reopens at price with the
// updated capital. Atomic from the caller's view: if any computation
// fails, neither the position nor the capital changes.
func (m *Manager) Rebalance(ctx context.Context, price float64, ts time.Time) (domain.Position, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pos == nil {
		return domain.Position{}, 0, fmt.Errorf("no position to rebalance")
	}

	newCapital, err := m.settle(ctx, price, ts)
	if err != nil {
		return domain.Position{}, 0, err
	}
	pos, err := m.build(newCapital, price, ts)
	if err != nil {
		return domain.Position{}, 0, err
	}

	m.capital = newCapital
	m.pos = pos
	m.logger.Printf("rebalanced at price %.4f: new range (%.4f,%.4f), capital %.2f",
		price, pos.Range.Lower, pos.Range.Upper, newCapital)
	return *pos, newCapital, nil
}

// Value marks the open position to market at price; 0 when no position.
func (m *Manager) Value(price float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pos == nil {
		return 0
	}
	return uniswap.PositionValue(m.pos.Liquidity, m.pos.Range.Lower, m.pos.Range.Upper, price)
}

// Capital returns the current free-or-deployed capital figure.
func (m *Manager) Capital() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capital
}

// Position returns a copy of the open position, or nil when empty.
func (m *Manager) Position() *domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pos == nil {
		return nil
	}
	pos := *m.pos
	return &pos
}
