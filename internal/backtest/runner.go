package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/lookup"
	"uniswap-lp-lab/internal/position"
)

// ErrNoSamples is returned when the price series is empty.
var ErrNoSamples = errors.New("no price samples")

// Config holds the rebalance policy parameters.
type Config struct {
	// BufferPct widens the position range before a breach triggers a rebalance.
	BufferPct float64
	// WickThresholdPct is the absolute price change over the lookback window
	// that arms a cooldown.
	WickThresholdPct float64
	// WickLookback is how far back the wick comparison price is taken.
	WickLookback time.Duration
	// WickCooldown is how long rebalancing stays suppressed after a wick.
	WickCooldown time.Duration
}

// DefaultConfig returns the default policy parameters.
func DefaultConfig() Config {
	return Config{
		BufferPct:        0.01,
		WickThresholdPct: 0.08,
		WickLookback:     12 * time.Hour,
		WickCooldown:     4 * time.Hour,
	}
}

// Result summarizes a completed run.
type Result struct {
	// FinalValue is the mark-to-market value at the last sample.
	FinalValue float64
	// RebalanceCount is the number of rebalances executed.
	RebalanceCount int
	// Steps is the number of samples processed.
	Steps int
}

// Runner drives the position lifecycle over an hourly price series.
//
// Per sample: open if no position is held, run wick detection against the
// lookback price, rebalance on a buffered range breach unless a cooldown is
// active, and record the step. Detection runs every step, but a wick only
// arms a new cooldown once the previous one has expired.
type Runner struct {
	manager  *position.Manager
	recorder Recorder
	cfg      Config
	logger   *log.Logger
}

// NewRunner creates a backtest runner.
func NewRunner(manager *position.Manager, recorder Recorder, cfg Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Runner{
		manager:  manager,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the policy over chronologically ordered candles.
// Candles with a non-positive close are skipped.
func (r *Runner) Run(ctx context.Context, candles []*domain.Candle) (*Result, error) {
	if len(candles) == 0 {
		return nil, ErrNoSamples
	}

	var (
		cooldownUntil int64 // unix ms, 0 means unset
		rebalances    int
		steps         int
		lastValue     float64
	)

	lookbackMs := r.cfg.WickLookback.Milliseconds()
	cooldownMs := r.cfg.WickCooldown.Milliseconds()

	for _, c := range candles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		price := c.Close
		if price <= 0 {
			r.logger.Printf("skipping sample at %d: non-positive price %v", c.OpenTime, price)
			continue
		}
		ts := time.UnixMilli(c.OpenTime).UTC()

		if r.manager.Position() == nil {
			if _, err := r.manager.Open(ctx, price, ts); err != nil {
				return nil, fmt.Errorf("open position at %s: %w", ts.Format(time.RFC3339), err)
			}
			r.logger.Printf("opened position at %s price=%.4f", ts.Format(time.RFC3339), price)
		}

		// Wick detection. Skipped when the series has no sample that far back.
		if past, ok := lookup.CloseAt(c.OpenTime-lookbackMs, candles); ok && past > 0 {
			change := math.Abs(price-past) / past
			if change >= r.cfg.WickThresholdPct && (cooldownUntil == 0 || c.OpenTime >= cooldownUntil) {
				cooldownUntil = c.OpenTime + cooldownMs
				r.logger.Printf("wick detected at %s: %.2f%% move, cooldown until %s",
					ts.Format(time.RFC3339), change*100, time.UnixMilli(cooldownUntil).UTC().Format(time.RFC3339))
			}
		}

		pos := r.manager.Position()
		lowerTrigger := pos.Range.Lower * (1 - r.cfg.BufferPct)
		upperTrigger := pos.Range.Upper * (1 + r.cfg.BufferPct)

		if price < lowerTrigger || price > upperTrigger {
			if cooldownUntil != 0 && c.OpenTime < cooldownUntil {
				r.logger.Printf("breach at %s price=%.4f suppressed by cooldown", ts.Format(time.RFC3339), price)
			} else {
				if _, _, err := r.manager.Rebalance(ctx, price, ts); err != nil {
					return nil, fmt.Errorf("rebalance at %s: %w", ts.Format(time.RFC3339), err)
				}
				rebalances++
				r.recorder.RecordRebalance(ctx, ts.Unix(), r.manager.Value(price), price)
				r.logger.Printf("rebalanced at %s price=%.4f capital=%.2f", ts.Format(time.RFC3339), price, r.manager.Capital())
			}
		}

		lastValue = r.manager.Value(price)
		r.recorder.RecordSample(ctx, ts.Unix(), lastValue, price)
		steps++
	}

	if steps == 0 {
		return nil, ErrNoSamples
	}

	return &Result{
		FinalValue:     lastValue,
		RebalanceCount: rebalances,
		Steps:          steps,
	}, nil
}
