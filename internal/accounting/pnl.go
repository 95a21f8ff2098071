// Package accounting holds the pure money math for the paper trader.
// Every P&L figure in the system comes from here; the exit evaluator
// and the ledger never recompute proceeds ad hoc. Fees are charged
// exactly once per fill event and slippage exactly once per fill.
package accounting

import (
	"errors"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// CurrencyPlaces is the fixed number of fractional digits for currency
// amounts. Rounding is half-even so friction applied across thousands
// of micro-trades does not drift systematically.
const CurrencyPlaces = 8

// Accounting errors.
var (
	ErrNonPositivePrice = errors.New("entry price must be positive")
	ErrFeeExceedsSize   = errors.New("transaction fee consumes the whole position size")
)

// Quantize rounds a currency amount to CurrencyPlaces, half-even.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}

// EntryFillPrice applies entry-side slippage: fills are worse than the
// observed market price, so buys pay more.
func EntryFillPrice(basePrice decimal.Decimal, cfg domain.ConfigProfile) decimal.Decimal {
	return basePrice.Mul(decimal.NewFromInt(1).Add(cfg.SlippagePct))
}

// ExitFillPrice applies exit-side slippage: sells receive less.
func ExitFillPrice(marketPrice decimal.Decimal, cfg domain.ConfigProfile) decimal.Decimal {
	return marketPrice.Mul(decimal.NewFromInt(1).Sub(cfg.SlippagePct))
}

// OpenFill computes the entry economics for a new position:
// fill price (base plus slippage), net investment (size minus the flat
// entry fee) and units bought at the fill price.
func OpenFill(basePrice, sizeCurrency decimal.Decimal, cfg domain.ConfigProfile) (fillPrice, netInvestment, units decimal.Decimal, err error) {
	if !basePrice.IsPositive() {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrNonPositivePrice
	}

	fillPrice = EntryFillPrice(basePrice, cfg)
	netInvestment = sizeCurrency.Sub(cfg.TransactionFee)
	if !netInvestment.IsPositive() {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrFeeExceedsSize
	}

	units = netInvestment.Div(fillPrice)
	return fillPrice, netInvestment, units, nil
}

// ComputeUnrealized returns the position's P&L and the net proceeds of
// closing the remaining units right now at the given market price.
//
//	pnl = (remaining units sold at slipped price, minus one flat fee)
//	      + proceeds already realized by a partial close
//	      - gross capital committed
//
// The flat fee applies once per close event, not per unit.
func ComputeUnrealized(pos *domain.Position, marketPrice decimal.Decimal, cfg domain.ConfigProfile) (pnl, netProceeds decimal.Decimal) {
	remaining := pos.UnitsRemaining()
	if !remaining.IsPositive() {
		return decimal.Zero, decimal.Zero
	}

	gross := remaining.Mul(ExitFillPrice(marketPrice, cfg))
	netProceeds = Quantize(gross.Sub(cfg.TransactionFee))

	total := netProceeds.Add(pos.PartialProceeds)
	pnl = Quantize(total.Sub(pos.PositionSize))
	return pnl, netProceeds
}

// ComputePartialClose returns the economics of selling a fraction of
// the position's held units at the given market price: units sold, net
// proceeds (one flat fee), and the realized P&L of the sold slice
// against its share of the committed capital.
func ComputePartialClose(pos *domain.Position, marketPrice, fraction decimal.Decimal, cfg domain.ConfigProfile) (unitsSold, netProceeds, pnl decimal.Decimal) {
	unitsSold = pos.UnitsHeld.Mul(fraction)

	gross := unitsSold.Mul(ExitFillPrice(marketPrice, cfg))
	netProceeds = Quantize(gross.Sub(cfg.TransactionFee))

	costBasis := pos.PositionSize.Mul(fraction)
	pnl = Quantize(netProceeds.Sub(costBasis))
	return unitsSold, netProceeds, pnl
}
