package reporting

import (
	"context"
	"time"

	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/storage"
)

// Generator produces run reports from stored data.
type Generator struct {
	runStore    storage.RunStore
	sampleStore storage.SampleStore
	eventStore  storage.RebalanceEventStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	sampleStore storage.SampleStore,
	eventStore storage.RebalanceEventStore,
) *Generator {
	return &Generator{
		runStore:    runStore,
		sampleStore: sampleStore,
		eventStore:  eventStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one run.
// Returns storage.ErrNotFound if the run does not exist.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	samples, err := g.sampleStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	events, err := g.eventStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	rebalances := make([]RebalanceRow, len(events))
	for i, e := range events {
		rebalances[i] = RebalanceRow{
			Timestamp: e.Timestamp,
			Value:     e.Value,
			Price:     e.Price,
		}
	}

	return &Report{
		GeneratedAt: g.now(),
		Run: RunSummary{
			RunID:       run.RunID,
			Pool:        run.Pool,
			Chain:       run.Chain,
			Symbol:      run.Symbol,
			StartTime:   run.StartTime,
			EndTime:     run.EndTime,
			SampleCount: len(samples),
		},
		Performance: buildPerformance(run, samples),
		Rebalances:  rebalances,
	}, nil
}

// buildPerformance computes the value-curve metrics from ordered samples.
func buildPerformance(run *domain.Run, samples []*domain.Sample) PerformanceSummary {
	perf := PerformanceSummary{
		InitialCapital: run.InitialCapital,
		FinalValue:     run.FinalValue,
		RebalanceCount: run.RebalanceCount,
	}
	if run.InitialCapital != 0 {
		perf.ReturnPct = (run.FinalValue - run.InitialCapital) / run.InitialCapital * 100
	}

	if len(samples) == 0 {
		return perf
	}

	perf.FirstPrice = samples[0].Price
	perf.LastPrice = samples[len(samples)-1].Price
	perf.MinPrice = samples[0].Price
	perf.MaxPrice = samples[0].Price

	peak := samples[0].Value
	maxDrawdown := 0.0

	for _, s := range samples {
		if s.Price < perf.MinPrice {
			perf.MinPrice = s.Price
		}
		if s.Price > perf.MaxPrice {
			perf.MaxPrice = s.Price
		}

		if s.Value > peak {
			peak = s.Value
		}
		if peak > 0 {
			drawdown := (peak - s.Value) / peak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	perf.MaxDrawdownPct = maxDrawdown
	return perf
}
