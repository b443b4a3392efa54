package backtest

import (
	"context"
	"log"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// Recorder receives per-step backtest output. Calls are fire-and-forget:
// implementations must not fail the loop, so errors are logged and dropped
// inside the implementation.
type Recorder interface {
	// RecordSample records the position value at one step. Timestamp is unix seconds.
	RecordSample(ctx context.Context, timestamp int64, value, price float64)

	// RecordRebalance records a completed rebalance. Timestamp is unix seconds.
	RecordRebalance(ctx context.Context, timestamp int64, value, price float64)
}

// NopRecorder discards all output. Useful for dry runs and tests.
type NopRecorder struct{}

func (NopRecorder) RecordSample(context.Context, int64, float64, float64) {}

func (NopRecorder) RecordRebalance(context.Context, int64, float64, float64) {}

var _ Recorder = NopRecorder{}

// StoreRecorder persists samples and rebalance events for one run.
type StoreRecorder struct {
	runID   string
	samples storage.SampleStore
	events  storage.RebalanceEventStore
	logger  *log.Logger
}

// NewStoreRecorder creates a recorder writing under runID.
func NewStoreRecorder(runID string, samples storage.SampleStore, events storage.RebalanceEventStore, logger *log.Logger) *StoreRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &StoreRecorder{
		runID:   runID,
		samples: samples,
		events:  events,
		logger:  logger,
	}
}

var _ Recorder = (*StoreRecorder)(nil)

// RecordSample persists one position sample. Store failures are logged, not returned.
func (r *StoreRecorder) RecordSample(ctx context.Context, timestamp int64, value, price float64) {
	sample := &domain.Sample{
		RunID:     r.runID,
		Timestamp: timestamp,
		Value:     value,
		Price:     price,
	}
	if err := r.samples.Insert(ctx, sample); err != nil {
		r.logger.Printf("record sample for run %s at %d: %v", r.runID, timestamp, err)
	}
}

// RecordRebalance persists one rebalance event. Store failures are logged, not returned.
func (r *StoreRecorder) RecordRebalance(ctx context.Context, timestamp int64, value, price float64) {
	event := &domain.RebalanceEvent{
		RunID:     r.runID,
		Timestamp: timestamp,
		Value:     value,
		Price:     price,
	}
	if err := r.events.Insert(ctx, event); err != nil {
		r.logger.Printf("record rebalance for run %s at %d: %v", r.runID, timestamp, err)
	}
}
