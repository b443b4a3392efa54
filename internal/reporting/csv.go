package reporting

import (
	"fmt"
	"strings"

	"uniswap-lp-lab/internal/domain"
)

// RenderSamplesCSV renders the value curve as CSV string.
func RenderSamplesCSV(samples []*domain.Sample) string {
	var sb strings.Builder

	// Header
	sb.WriteString("timestamp,value,price\n")

	// Rows
	for _, s := range samples {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f\n", s.Timestamp, s.Value, s.Price))
	}

	return sb.String()
}

// RenderRebalancesCSV renders rebalance events as CSV string.
func RenderRebalancesCSV(rebalances []RebalanceRow) string {
	var sb strings.Builder

	sb.WriteString("timestamp,value,price\n")

	for _, e := range rebalances {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f\n", e.Timestamp, e.Value, e.Price))
	}

	return sb.String()
}
