// Package entry implements the entry filter chain and position sizing
// for scanned candidates. Filters run in a fixed order and the first
// failing filter names the rejection; a candidate that survives every
// filter is admitted with a quality-stepped position size.
package entry

import (
	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// Rejection reasons, in filter order.
const (
	RejectOpenPosition   = "OPEN_POSITION"
	RejectRecentlySeen   = "RECENTLY_SEEN"
	RejectCircuitBreaker = "CIRCUIT_BREAKER"
	RejectLowScore       = "LOW_SCORE"
	RejectWeakMomentum   = "WEAK_MOMENTUM"
	RejectMarketCap      = "MARKET_CAP"
	RejectLiquidity      = "LIQUIDITY"
	RejectVolumeRatio    = "VOLUME_RATIO"
	RejectMaxPositions   = "MAX_POSITIONS"
	RejectEquity         = "INSUFFICIENT_EQUITY"
)

// PortfolioView is the read-only portfolio state the filter chain
// consults. The ledger satisfies it.
type PortfolioView interface {
	HasPosition(tokenID string) bool
	RecentlySeen(tokenID string) bool
	OpenCount() int
	DailyRealizedPnl() decimal.Decimal
	Equity() decimal.Decimal
}

// Decision is the outcome for one candidate. Size is meaningful only
// when Accept is true.
type Decision struct {
	Accept bool
	Reason string
	Size   decimal.Decimal
}

func reject(reason string) Decision {
	return Decision{Reason: reason}
}

// Decide runs the ordered filter chain for a candidate against the
// current portfolio state. It never mutates the portfolio; marking the
// token as seen and debiting equity happen when the ledger opens the
// position.
func Decide(c domain.Candidate, view PortfolioView, cfg domain.ConfigProfile) Decision {
	if view.HasPosition(c.TokenID) {
		return reject(RejectOpenPosition)
	}
	if view.RecentlySeen(c.TokenID) {
		return reject(RejectRecentlySeen)
	}

	// Daily loss circuit breaker halts new entries, never exits.
	if view.DailyRealizedPnl().LessThanOrEqual(cfg.MaxDailyLoss) {
		return reject(RejectCircuitBreaker)
	}

	if c.QualityScore < cfg.MinTokenScore {
		return reject(RejectLowScore)
	}

	// Momentum gate: the hourly change clearing the threshold or the
	// 5-minute change clearing half of it is enough; only both weak
	// rejects.
	minPct := cfg.MinPriceIncreasePct.InexactFloat64() * 100
	if c.PriceChange1h < minPct && c.PriceChange5m < minPct*0.5 {
		return reject(RejectWeakMomentum)
	}

	if c.MarketCap < cfg.MinMarketCap || (cfg.MaxMarketCap > 0 && c.MarketCap > cfg.MaxMarketCap) {
		return reject(RejectMarketCap)
	}
	if c.Liquidity < cfg.MinLiquidity {
		return reject(RejectLiquidity)
	}
	if c.MarketCap > 0 && c.Volume24h/c.MarketCap < cfg.MinVolumeToMcapRatio {
		return reject(RejectVolumeRatio)
	}

	if view.OpenCount() >= cfg.MaxConcurrentPositions {
		return reject(RejectMaxPositions)
	}

	size := PositionSize(c, cfg)
	if view.Equity().LessThan(size) {
		return reject(RejectEquity)
	}

	return Decision{Accept: true, Size: size}
}

// PositionSize steps the base size up for higher conviction
// candidates. The step is a function of quality score and 24h volume;
// the result never exceeds the configured maximum.
func PositionSize(c domain.Candidate, cfg domain.ConfigProfile) decimal.Decimal {
	size := cfg.BasePositionSize

	switch {
	case c.QualityScore >= 75 && c.Volume24h > 500_000:
		size = size.Mul(decimal.NewFromInt(2))
	case c.QualityScore >= 60 && c.Volume24h > 100_000:
		size = size.Mul(decimal.NewFromFloat(1.5))
	case c.QualityScore >= 50:
		size = size.Mul(decimal.NewFromFloat(1.2))
	}

	if size.GreaterThan(cfg.MaxPositionSize) {
		return cfg.MaxPositionSize
	}
	return size
}
