package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Paper Trading Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	s := r.Summary
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winners / Losers | %d / %d |\n", s.WinningTrades, s.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Total P&L | %s |\n", s.TotalPnl.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg P&L | %s |\n", s.AvgPnl.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg Win | %s |\n", s.AvgWin.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %s |\n", s.AvgLoss.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Best Trade | %s |\n", s.BestTrade.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Worst Trade | %s |\n", s.WorstTrade.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", s.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Avg Hold | %.0fs |\n", s.AvgHoldSeconds))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", s.MaxDrawdown.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", s.MaxConsecutiveLosses))
	sb.WriteString("\n")

	sb.WriteString("## Exit Reasons\n\n")
	writeBreakdown(&sb, r.ExitReasons)

	sb.WriteString("## Sources\n\n")
	writeBreakdown(&sb, r.Sources)

	return sb.String()
}

func writeBreakdown(sb *strings.Builder, rows []BreakdownRow) {
	if len(rows) == 0 {
		sb.WriteString("No trades.\n\n")
		return
	}

	sb.WriteString("| Bucket | Trades | Total P&L | Avg P&L |\n")
	sb.WriteString("|--------|--------|-----------|--------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
			row.Name, row.Count, row.TotalPnl, row.AvgPnl))
	}
	sb.WriteString("\n")
}
