// Package reporting renders session reports from the closed-trade
// ledger: a flat CSV export of every trade and a Markdown performance
// summary.
package reporting

import (
	"time"

	"solana-paper-trader/internal/analytics"
)

// Report is the session performance report.
type Report struct {
	GeneratedAt time.Time

	Summary analytics.Summary

	// Breakdowns, sorted by bucket name.
	ExitReasons []BreakdownRow
	Sources     []BreakdownRow
}

// BreakdownRow is one bucket of a grouped pnl breakdown.
type BreakdownRow struct {
	Name     string
	Count    int
	TotalPnl string
	AvgPnl   string
}
