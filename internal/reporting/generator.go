package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"solana-paper-trader/internal/analytics"
	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// Generator builds reports from a closed-trade store.
type Generator struct {
	trades storage.ClosedTradeStore
	now    func() time.Time
}

// NewGenerator creates a Generator reading from the given store.
func NewGenerator(trades storage.ClosedTradeStore) *Generator {
	return &Generator{
		trades: trades,
		now:    time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads every trade and computes the report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	trades, err := g.trades.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load closed trades: %w", err)
	}
	return Build(trades, g.now()), nil
}

// Build computes a report over an already-loaded trade slice.
func Build(trades []*domain.ClosedTrade, generatedAt time.Time) *Report {
	return &Report{
		GeneratedAt: generatedAt,
		Summary:     analytics.Summarize(trades),
		ExitReasons: breakdownRows(analytics.ByExitReason(trades)),
		Sources:     breakdownRows(analytics.BySource(trades)),
	}
}

func breakdownRows(groups map[string]analytics.GroupStats) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(groups))
	for name, g := range groups {
		rows = append(rows, BreakdownRow{
			Name:     name,
			Count:    g.Count,
			TotalPnl: g.TotalPnl.StringFixed(2),
			AvgPnl:   g.AvgPnl.StringFixed(2),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}
