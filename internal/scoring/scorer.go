// Package scoring ranks scanned tokens for entry consideration. The
// score is additive over volume, short and medium momentum, liquidity,
// market-cap band, transaction activity and a volatility bonus; higher
// is better. Scores feed the entry unit's minimum-score filter and its
// position sizing steps.
package scoring

import "solana-paper-trader/internal/domain"

// Tradeable is a cheap pre-filter applied before scoring: wide
// market-cap band, floor liquidity and volume, and a cutoff for tokens
// collapsing hard over the last hour.
func Tradeable(c domain.Candidate) bool {
	if c.MarketCap < 5_000 || c.MarketCap > 5_000_000 {
		return false
	}
	if c.Liquidity < 5_000 {
		return false
	}
	if c.Volume24h < 100 {
		return false
	}
	if c.PriceChange1h < -20 {
		return false
	}
	if c.Txns24h < 5 {
		return false
	}
	return true
}

// Score computes the additive quality score for a candidate.
func Score(c domain.Candidate) int {
	score := 0

	switch {
	case c.Volume24h > 200_000:
		score += 30
	case c.Volume24h > 50_000:
		score += 20
	case c.Volume24h > 10_000:
		score += 15
	case c.Volume24h > 1_000:
		score += 10
	case c.Volume24h > 100:
		score += 5
	}

	// Short momentum carries the most weight; a small negative still
	// earns a few points.
	switch {
	case c.PriceChange5m > 5:
		score += 25
	case c.PriceChange5m > 2:
		score += 20
	case c.PriceChange5m > 0.5:
		score += 15
	case c.PriceChange5m > 0:
		score += 10
	case c.PriceChange5m > -2:
		score += 5
	}

	switch {
	case c.PriceChange1h > 10:
		score += 20
	case c.PriceChange1h > 5:
		score += 15
	case c.PriceChange1h > 0:
		score += 10
	case c.PriceChange1h > -5:
		score += 5
	}

	switch {
	case c.Liquidity > 50_000:
		score += 20
	case c.Liquidity > 20_000:
		score += 15
	case c.Liquidity > 10_000:
		score += 10
	case c.Liquidity > 5_000:
		score += 5
	}

	// Smaller caps move more; the micro-cap band scores highest.
	switch {
	case c.MarketCap >= 10_000 && c.MarketCap <= 200_000:
		score += 15
	case c.MarketCap >= 5_000 && c.MarketCap <= 500_000:
		score += 12
	case c.MarketCap <= 1_000_000:
		score += 8
	}

	switch {
	case c.Txns24h > 100:
		score += 10
	case c.Txns24h > 50:
		score += 8
	case c.Txns24h > 10:
		score += 5
	}

	// Volatility bonus in either direction.
	abs1h := c.PriceChange1h
	if abs1h < 0 {
		abs1h = -abs1h
	}
	switch {
	case abs1h > 15:
		score += 10
	case abs1h > 8:
		score += 5
	}

	if c.PriceChange5m > 0 && c.Volume24h > 5_000 {
		score += 8
	}

	if score < 0 {
		return 0
	}
	return score
}
