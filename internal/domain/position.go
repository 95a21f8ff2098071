package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceWindowSize bounds the rolling window of recent price
// observations kept per position for stagnation and reversal checks.
const PriceWindowSize = 8

// Position is an open simulated holding in a single token. It is owned
// exclusively by the ledger from open until close; price ticks and
// partial closes mutate it in place.
type Position struct {
	TokenID string
	Symbol  string

	EntryBasePrice decimal.Decimal // pre-slippage market price at scan time
	EntryFillPrice decimal.Decimal // post-slippage, what was "paid"
	EntryTime      time.Time

	PositionSize  decimal.Decimal // gross capital committed (currency)
	NetInvestment decimal.Decimal // PositionSize - entry fee
	UnitsHeld     decimal.Decimal // NetInvestment / EntryFillPrice, > 0

	CurrentPrice decimal.Decimal // last applied observation
	HighestPrice decimal.Decimal // max observation so far, never decreases

	// Partial-close state. Once PartiallyClosed flips true it never
	// reverts; UnitsSold and PartialProceeds only grow.
	PartiallyClosed bool
	UnitsSold       decimal.Decimal
	PartialProceeds decimal.Decimal // net currency already credited to equity

	// Trailing stop, unarmed until unrealized gain crosses the
	// activation threshold; the stop price only ratchets upward.
	TrailingArmed bool
	TrailingStop  decimal.Decimal

	// Exit-rule bookkeeping.
	RecentPrices  []decimal.Decimal // rolling window, newest last
	NoChangeTicks int               // consecutive flat-window ticks

	// Candidate snapshot carried through to the closed-trade record.
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

// UnitsRemaining returns the units not yet sold by a partial close.
func (p *Position) UnitsRemaining() decimal.Decimal {
	return p.UnitsHeld.Sub(p.UnitsSold)
}

// ChangeRatio returns (price - entryBase) / entryBase. Percentage
// comparisons always use the pre-slippage entry reference price;
// realized money amounts come from the accounting package instead.
func (p *Position) ChangeRatio(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryBasePrice).Div(p.EntryBasePrice)
}

// ObservePrice records a fresh observation: updates the current price,
// ratchets the peak, and appends to the bounded rolling window.
func (p *Position) ObservePrice(price decimal.Decimal) {
	p.CurrentPrice = price
	if price.GreaterThan(p.HighestPrice) {
		p.HighestPrice = price
	}
	p.RecentPrices = append(p.RecentPrices, price)
	if len(p.RecentPrices) > PriceWindowSize {
		p.RecentPrices = p.RecentPrices[len(p.RecentPrices)-PriceWindowSize:]
	}
}
