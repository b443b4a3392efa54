package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.Run.RunID))
	sb.WriteString(fmt.Sprintf("| Pool | %s |\n", r.Run.Pool))
	sb.WriteString(fmt.Sprintf("| Chain | %s |\n", r.Run.Chain))
	sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", r.Run.Symbol))
	sb.WriteString(fmt.Sprintf("| Start | %s |\n", time.Unix(r.Run.StartTime, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| End | %s |\n", time.Unix(r.Run.EndTime, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Samples | %d |\n", r.Run.SampleCount))
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %.2f |\n", r.Performance.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Final Value | %.2f |\n", r.Performance.FinalValue))
	sb.WriteString(fmt.Sprintf("| Return | %.2f%% |\n", r.Performance.ReturnPct))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.Performance.MaxDrawdownPct))
	sb.WriteString(fmt.Sprintf("| Rebalances | %d |\n", r.Performance.RebalanceCount))
	sb.WriteString(fmt.Sprintf("| First Price | %.4f |\n", r.Performance.FirstPrice))
	sb.WriteString(fmt.Sprintf("| Last Price | %.4f |\n", r.Performance.LastPrice))
	sb.WriteString(fmt.Sprintf("| Price Range | %.4f - %.4f |\n", r.Performance.MinPrice, r.Performance.MaxPrice))
	sb.WriteString("\n")

	// Rebalance events
	sb.WriteString("## Rebalance Events\n\n")
	if len(r.Rebalances) > 0 {
		sb.WriteString("| Time | Value | Price |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, e := range r.Rebalances {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.4f |\n",
				time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339), e.Value, e.Price))
		}
	} else {
		sb.WriteString("No rebalances occurred.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
