// Package idhash derives deterministic run identifiers, so re-running the
// same configuration maps onto the same stored run instead of a duplicate.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RunParams are the inputs that define a backtest run's identity. Two runs
// with equal params produce identical output, so they share an ID.
type RunParams struct {
	Pool             string
	Chain            string
	Symbol           string
	StartDate        string // YYYY-MM-DD
	EndDate          string // YYYY-MM-DD
	InitialCapital   float64
	LowerBoundFactor float64
	UpperBoundFactor float64
	BufferPct        float64
	WickThresholdPct float64
	SlippageFactor   float64
}

// ComputeRunID computes a deterministic run_id using SHA256 over the
// pipe-joined run parameters. Returns a hex-encoded hash truncated to 16
// characters, prefixed for readability.
func ComputeRunID(p RunParams) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%g|%g|%g|%g|%g|%g",
		p.Pool,
		p.Chain,
		p.Symbol,
		p.StartDate,
		p.EndDate,
		p.InitialCapital,
		p.LowerBoundFactor,
		p.UpperBoundFactor,
		p.BufferPct,
		p.WickThresholdPct,
		p.SlippageFactor,
	)

	hash := sha256.Sum256([]byte(data))
	return "run-" + hex.EncodeToString(hash[:])[:16]
}
