package domain

// Run holds metadata for one backtest execution.
// Corresponds to the backtest_runs table in PostgreSQL.
type Run struct {
	RunID          string
	Pool           string // pool address
	Chain          string // chain identifier, e.g. "base"
	Symbol         string // exchange symbol driving the price series
	StartTime      int64  // Unix seconds, inclusive
	EndTime        int64  // Unix seconds, inclusive
	InitialCapital float64
	FinalValue     float64
	RebalanceCount int
	CreatedAt      int64 // Unix seconds
}

// Sample is one recorded step of the backtest loop: the mark-to-market
// position value and the driving price at a timestamp.
// Corresponds to the position_samples table.
type Sample struct {
	RunID     string
	Timestamp int64 // Unix seconds
	Value     float64
	Price     float64
}

// RebalanceEvent records a completed rebalance.
// Corresponds to the rebalance_events table.
type RebalanceEvent struct {
	RunID     string
	Timestamp int64 // Unix seconds
	Value     float64 // position value immediately after reopening
	Price     float64
}

// FeeResult is the output of one fee accrual computation over a period.
type FeeResult struct {
	FeesToken0Raw float64 // token0 fees in raw token units
	FeesToken1Raw float64 // token1 fees in raw token units
	FeesUSD       float64
	Liquidity     float64 // simulated liquidity used for the computation
	PeriodSeconds int64
	APRPercent    float64
}
