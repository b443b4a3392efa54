package reporting

import "time"

// Report summarizes one completed backtest run.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	Run         RunSummary
	Performance PerformanceSummary

	// Rebalances, ordered by timestamp ASC.
	Rebalances []RebalanceRow
}

// RunSummary describes the run being reported.
type RunSummary struct {
	RunID       string
	Pool        string
	Chain       string
	Symbol      string
	StartTime   int64 // Unix seconds
	EndTime     int64 // Unix seconds
	SampleCount int
}

// PerformanceSummary contains the value-curve metrics.
type PerformanceSummary struct {
	InitialCapital float64
	FinalValue     float64
	ReturnPct      float64 // (final - initial) / initial * 100, 0 if initial == 0
	MaxDrawdownPct float64 // worst peak-to-trough decline over the value curve
	RebalanceCount int

	FirstPrice float64
	LastPrice  float64
	MinPrice   float64
	MaxPrice   float64
}

// RebalanceRow is one rebalance event in the report.
type RebalanceRow struct {
	Timestamp int64 // Unix seconds
	Value     float64
	Price     float64
}
