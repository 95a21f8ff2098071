package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosedTrade is the immutable historical record appended when a
// position is fully closed. The ordered sequence of closed trades is
// the trade ledger; insertion order is chronological order.
type ClosedTrade struct {
	TradeID string // assigned at close, unique across the session
	TokenID string
	Symbol  string

	EntryBasePrice decimal.Decimal
	EntryFillPrice decimal.Decimal
	ExitPrice      decimal.Decimal // last observed market price at close
	ExitReason     string

	PositionSize    decimal.Decimal
	RealizedPnl     decimal.Decimal // signed, net of fees and slippage
	PnlPercent      float64         // RealizedPnl / PositionSize * 100
	PercentChange   float64         // price move vs entry base price * 100
	PartiallyClosed bool

	OpenedAt     time.Time
	ClosedAt     time.Time
	HoldDuration time.Duration

	HighestPrice decimal.Decimal

	// Candidate snapshot at entry, kept for export and analysis.
	QualityScore   int
	MarketCap      float64
	Liquidity      float64
	Volume24h      float64
	PriceChange5m  float64
	PriceChange1h  float64
	PriceChange24h float64
	Txns24h        int
	SourceTag      string
}

// Exit reason codes, in rule-priority order.
const (
	ExitReasonPartialTP1       = "PARTIAL_TP1"
	ExitReasonNoChange         = "NO_CHANGE"
	ExitReasonTrailingStop     = "TRAILING_STOP"
	ExitReasonTakeProfit       = "TAKE_PROFIT"
	ExitReasonStopLoss         = "STOP_LOSS"
	ExitReasonTimeout          = "TIMEOUT"
	ExitReasonMomentumReversal = "MOMENTUM_REVERSAL"
	ExitReasonHolding          = "HOLDING"
)
