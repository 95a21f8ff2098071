// Package exit implements the ordered exit-rule evaluation for open
// positions. Rules are checked first-match-wins; tighter, higher
// priority exits run before generic ones so a fast profit opportunity
// is never masked by slow timeout logic.
package exit

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/accounting"
	"solana-paper-trader/internal/domain"
)

// Action is the evaluation outcome kind.
type Action int

// Evaluation outcomes.
const (
	Hold Action = iota
	PartialClose
	FullClose
)

// Verdict is the result of evaluating one position against one fresh
// price observation. Pnl is informational; the ledger recomputes money
// amounts through the accounting package when it applies the verdict.
type Verdict struct {
	Action Action
	Reason string
	Pnl    decimal.Decimal
}

// Evaluate runs the exit policy for a position against a fresh market
// price. It mutates the position's bookkeeping state (price window,
// peak, trailing stop, stagnation counter) but never its economic
// state; partial and full closes are applied by the ledger.
//
// Rule order:
//  1. partial take-profit (once per position)
//  2. stagnation (flat price window for N consecutive ticks)
//  3. trailing stop (once armed)
//  4. hard take-profit
//  5. hard stop-loss
//  6. timeout
//  7. momentum reversal (only while profitable)
func Evaluate(pos *domain.Position, marketPrice decimal.Decimal, cfg domain.ConfigProfile, now time.Time) Verdict {
	pos.ObservePrice(marketPrice)
	updateTrailingStop(pos, cfg)

	ratio := pos.ChangeRatio(marketPrice)

	// Partial take-profit fires at most once; PartiallyClosed never
	// reverts, so repeated evaluations cannot double-sell.
	if !pos.PartiallyClosed && ratio.GreaterThanOrEqual(cfg.TakeProfitPct1) {
		_, _, partialPnl := accounting.ComputePartialClose(pos, marketPrice, cfg.PartialCloseFraction, cfg)
		return Verdict{Action: PartialClose, Reason: domain.ExitReasonPartialTP1, Pnl: partialPnl}
	}

	if stagnated(pos, marketPrice, cfg) {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonNoChange)
	}

	if pos.TrailingArmed && marketPrice.LessThanOrEqual(pos.TrailingStop) {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonTrailingStop)
	}

	if ratio.GreaterThanOrEqual(cfg.TakeProfitPct2) {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonTakeProfit)
	}

	if ratio.LessThanOrEqual(cfg.StopLossPct.Neg()) {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonStopLoss)
	}

	if now.Sub(pos.EntryTime) >= cfg.MaxHold {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonTimeout)
	}

	if ratio.IsPositive() && reversing(pos.RecentPrices) {
		return fullClose(pos, marketPrice, cfg, domain.ExitReasonMomentumReversal)
	}

	pnl, _ := accounting.ComputeUnrealized(pos, marketPrice, cfg)
	return Verdict{Action: Hold, Reason: domain.ExitReasonHolding, Pnl: pnl}
}

func fullClose(pos *domain.Position, marketPrice decimal.Decimal, cfg domain.ConfigProfile, reason string) Verdict {
	pnl, _ := accounting.ComputeUnrealized(pos, marketPrice, cfg)
	return Verdict{Action: FullClose, Reason: reason, Pnl: pnl}
}

// updateTrailingStop arms the trailing stop once the peak gain crosses
// the activation threshold and ratchets the stop price upward as the
// peak rises. The distance tightens at the higher gain threshold; the
// stop never moves down.
func updateTrailingStop(pos *domain.Position, cfg domain.ConfigProfile) {
	peakGain := pos.ChangeRatio(pos.HighestPrice)
	if peakGain.LessThan(cfg.TrailingActivationPct) {
		return
	}

	distance := cfg.TrailingDistanceWide
	if peakGain.GreaterThanOrEqual(cfg.TrailingTightenPct) {
		distance = cfg.TrailingDistanceTight
	}

	stop := pos.HighestPrice.Mul(decimal.NewFromInt(1).Sub(distance))
	if !pos.TrailingArmed || stop.GreaterThan(pos.TrailingStop) {
		pos.TrailingArmed = true
		pos.TrailingStop = stop
	}
}

// stagnated updates the flat-window counter and reports whether the
// position has sat in a flat price window for enough consecutive
// ticks. Relative variance is (max-min)/current over the rolling
// window; a live window resets the counter.
func stagnated(pos *domain.Position, marketPrice decimal.Decimal, cfg domain.ConfigProfile) bool {
	if len(pos.RecentPrices) < 2 {
		return false
	}

	lo, hi := pos.RecentPrices[0], pos.RecentPrices[0]
	for _, p := range pos.RecentPrices[1:] {
		if p.LessThan(lo) {
			lo = p
		}
		if p.GreaterThan(hi) {
			hi = p
		}
	}

	variance := hi.Sub(lo).Div(marketPrice)
	if variance.GreaterThanOrEqual(cfg.StagnationVariancePct) {
		pos.NoChangeTicks = 0
		return false
	}

	pos.NoChangeTicks++
	return pos.NoChangeTicks >= cfg.StagnationTicks
}

// reversing reports whether the last four observations are strictly
// decreasing, i.e. three consecutive drops.
func reversing(window []decimal.Decimal) bool {
	if len(window) < 4 {
		return false
	}

	tail := window[len(window)-4:]
	for i := 1; i < len(tail); i++ {
		if !tail[i].LessThan(tail[i-1]) {
			return false
		}
	}
	return true
}
