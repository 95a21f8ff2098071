package reporting

import (
	"fmt"
	"strings"

	"solana-paper-trader/internal/analytics"
	"solana-paper-trader/internal/domain"
)

// RenderTradesCSV renders the closed-trade ledger as a flat CSV
// string, one row per trade, with the derived scoring and category
// columns appended after the raw fields.
func RenderTradesCSV(trades []*domain.ClosedTrade) string {
	var sb strings.Builder

	sb.WriteString("closed_at,opened_at,symbol,token_id,entry_base_price,entry_fill_price,exit_price,exit_reason,")
	sb.WriteString("position_size,pnl,pnl_percent,percent_change,partially_closed,duration_seconds,")
	sb.WriteString("score,market_cap,liquidity,volume_24h,price_change_5m,price_change_1h,price_change_24h,txns_24h,source,")
	sb.WriteString("profit_margin,volume_to_mcap_ratio,liquidity_ratio,momentum_score,trade_category,hold_category,score_category\n")

	for _, t := range trades {
		durationMinutes := t.HoldDuration.Minutes()
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%.4f,%.4f,%t,%.0f,",
			t.ClosedAt.UTC().Format("2006-01-02T15:04:05Z"),
			t.OpenedAt.UTC().Format("2006-01-02T15:04:05Z"),
			t.Symbol,
			t.TokenID,
			t.EntryBasePrice.String(),
			t.EntryFillPrice.String(),
			t.ExitPrice.String(),
			t.ExitReason,
			t.PositionSize.String(),
			t.RealizedPnl.String(),
			t.PnlPercent,
			t.PercentChange,
			t.PartiallyClosed,
			t.HoldDuration.Seconds(),
		))
		sb.WriteString(fmt.Sprintf("%d,%.2f,%.2f,%.2f,%.4f,%.4f,%.4f,%d,%s,",
			t.QualityScore,
			t.MarketCap,
			t.Liquidity,
			t.Volume24h,
			t.PriceChange5m,
			t.PriceChange1h,
			t.PriceChange24h,
			t.Txns24h,
			t.SourceTag,
		))
		sb.WriteString(fmt.Sprintf("%.4f,%.6f,%.6f,%.4f,%s,%s,%s\n",
			profitMargin(t),
			t.Volume24h/(t.MarketCap+1),
			t.Liquidity/(t.MarketCap+1),
			t.PriceChange5m+t.PriceChange1h+t.PriceChange24h/4,
			analytics.TradeCategory(t.RealizedPnl),
			analytics.HoldCategory(durationMinutes),
			analytics.ScoreCategory(t.QualityScore),
		))
	}

	return sb.String()
}

// profitMargin is pnl over position size in percent, with a small
// stabilizer so zero-size rows cannot divide by zero.
func profitMargin(t *domain.ClosedTrade) float64 {
	return t.RealizedPnl.InexactFloat64() / (t.PositionSize.InexactFloat64() + 0.01) * 100
}
