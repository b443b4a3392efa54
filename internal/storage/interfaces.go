package storage

import (
	"context"

	"uniswap-lp-lab/internal/domain"
)

// RunStore provides access to backtest_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// GetByPool retrieves all runs for a pool address, ordered by created_at ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.Run, error)

	// GetAll retrieves all runs, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Run, error)
}

// SampleStore provides access to position_samples storage.
type SampleStore interface {
	// Insert adds a new sample. Returns ErrDuplicateKey if (run_id, timestamp) exists.
	Insert(ctx context.Context, s *domain.Sample) error

	// InsertBulk adds multiple samples atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, samples []*domain.Sample) error

	// GetByRunID retrieves all samples for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Sample, error)

	// GetByTimeRange retrieves samples for a run within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Sample, error)
}

// RebalanceEventStore provides access to rebalance_events storage.
type RebalanceEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if (run_id, timestamp) exists.
	Insert(ctx context.Context, e *domain.RebalanceEvent) error

	// GetByRunID retrieves all events for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.RebalanceEvent, error)
}

// CandleStore provides access to candles storage.
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on duplicate (symbol, open_time).
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetByTimeRange retrieves candles for a symbol with open_time within
	// [start, end] (inclusive, milliseconds), ordered by open_time ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error)

	// LatestOpenTime returns the greatest open_time stored for a symbol.
	// Returns ErrNotFound when no candles exist for the symbol.
	LatestOpenTime(ctx context.Context, symbol string) (int64, error)
}
