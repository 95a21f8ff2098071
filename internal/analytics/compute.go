// Package analytics computes session statistics over the closed-trade
// ledger: headline performance numbers, per-exit-reason and per-source
// breakdowns, and coarse trade categories for export.
package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// Summary holds the headline performance metrics for a set of trades.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent of trades with positive pnl

	TotalPnl decimal.Decimal
	AvgPnl   decimal.Decimal
	AvgWin   decimal.Decimal // mean pnl over winners only
	AvgLoss  decimal.Decimal // mean pnl over losers only, negative

	BestTrade  decimal.Decimal
	WorstTrade decimal.Decimal

	// ProfitFactor is |AvgWin / AvgLoss|; zero when there are no losers.
	ProfitFactor float64

	AvgHoldSeconds float64

	// Order-dependent metrics over the chronological pnl sequence.
	MaxDrawdown          decimal.Decimal // worst peak-to-trough on cumulative pnl
	MaxConsecutiveLosses int
}

// Summarize calculates the headline metrics from a slice of trades.
// Trades are sorted by ClosedAt ASC, TradeID ASC before computing
// order-dependent metrics.
func Summarize(trades []*domain.ClosedTrade) Summary {
	n := len(trades)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]*domain.ClosedTrade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ClosedAt.Equal(sorted[j].ClosedAt) {
			return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	var (
		total, winSum, lossSum decimal.Decimal
		wins, losses           int
		holdSeconds            float64
		best                   = sorted[0].RealizedPnl
		worst                  = sorted[0].RealizedPnl
	)
	for _, t := range sorted {
		total = total.Add(t.RealizedPnl)
		holdSeconds += t.HoldDuration.Seconds()

		if t.RealizedPnl.IsPositive() {
			wins++
			winSum = winSum.Add(t.RealizedPnl)
		} else if t.RealizedPnl.IsNegative() {
			losses++
			lossSum = lossSum.Add(t.RealizedPnl)
		}

		if t.RealizedPnl.GreaterThan(best) {
			best = t.RealizedPnl
		}
		if t.RealizedPnl.LessThan(worst) {
			worst = t.RealizedPnl
		}
	}

	count := decimal.NewFromInt(int64(n))
	s := Summary{
		TotalTrades:   n,
		WinningTrades: wins,
		LosingTrades:  losses,
		WinRate:       float64(wins) / float64(n) * 100,

		TotalPnl: total,
		AvgPnl:   total.Div(count),

		BestTrade:  best,
		WorstTrade: worst,

		AvgHoldSeconds: holdSeconds / float64(n),

		MaxDrawdown:          maxDrawdown(sorted),
		MaxConsecutiveLosses: maxConsecutiveLosses(sorted),
	}
	if wins > 0 {
		s.AvgWin = winSum.Div(decimal.NewFromInt(int64(wins)))
	}
	if losses > 0 {
		s.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(losses)))
	}
	if losses > 0 && !s.AvgLoss.IsZero() {
		s.ProfitFactor = math.Abs(s.AvgWin.InexactFloat64() / s.AvgLoss.InexactFloat64())
	}
	return s
}

// GroupStats aggregates pnl over one bucket of trades.
type GroupStats struct {
	Count    int
	TotalPnl decimal.Decimal
	AvgPnl   decimal.Decimal
}

// ByExitReason buckets trades by exit reason.
func ByExitReason(trades []*domain.ClosedTrade) map[string]GroupStats {
	return groupBy(trades, func(t *domain.ClosedTrade) string { return t.ExitReason })
}

// BySource buckets trades by discovery source.
func BySource(trades []*domain.ClosedTrade) map[string]GroupStats {
	return groupBy(trades, func(t *domain.ClosedTrade) string { return t.SourceTag })
}

func groupBy(trades []*domain.ClosedTrade, key func(*domain.ClosedTrade) string) map[string]GroupStats {
	out := make(map[string]GroupStats)
	for _, t := range trades {
		g := out[key(t)]
		g.Count++
		g.TotalPnl = g.TotalPnl.Add(t.RealizedPnl)
		out[key(t)] = g
	}
	for k, g := range out {
		g.AvgPnl = g.TotalPnl.Div(decimal.NewFromInt(int64(g.Count)))
		out[k] = g
	}
	return out
}

// maxDrawdown calculates worst peak-to-trough on cumulative pnl.
// Trades must be in chronological order.
func maxDrawdown(trades []*domain.ClosedTrade) decimal.Decimal {
	var cumulative, peak, worst decimal.Decimal
	for _, t := range trades {
		cumulative = cumulative.Add(t.RealizedPnl)
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		if dd := peak.Sub(cumulative); dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return worst
}

// maxConsecutiveLosses finds the longest streak of pnl <= 0.
// Trades must be in chronological order.
func maxConsecutiveLosses(trades []*domain.ClosedTrade) int {
	maxStreak := 0
	streak := 0
	for _, t := range trades {
		if t.RealizedPnl.IsPositive() {
			streak = 0
			continue
		}
		streak++
		if streak > maxStreak {
			maxStreak = streak
		}
	}
	return maxStreak
}

// Trade categories used in the CSV export.

// TradeCategory labels a trade by pnl size.
func TradeCategory(pnl decimal.Decimal) string {
	switch {
	case pnl.GreaterThan(decimal.NewFromInt(5)):
		return "Big Win"
	case pnl.IsPositive():
		return "Win"
	case pnl.GreaterThan(decimal.NewFromInt(-3)):
		return "Loss"
	default:
		return "Big Loss"
	}
}

// HoldCategory labels a trade by hold duration.
func HoldCategory(minutes float64) string {
	switch {
	case minutes < 5:
		return "Quick"
	case minutes < 15:
		return "Medium"
	default:
		return "Long"
	}
}

// ScoreCategory labels a trade by its entry quality score.
func ScoreCategory(score int) string {
	switch {
	case score >= 60:
		return "High"
	case score >= 40:
		return "Medium"
	default:
		return "Low"
	}
}
