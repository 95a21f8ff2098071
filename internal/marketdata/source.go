// Package marketdata supplies scored candidate tokens and fresh prices
// to the trading engine. The engine never fetches network data itself;
// it consumes these interfaces and treats a failed fetch as "no fresh
// price" for that token on that tick.
package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// ErrPriceUnavailable is returned when no current price is known for a
// token. Callers retain the last known price and skip the token for
// the tick.
var ErrPriceUnavailable = errors.New("price unavailable")

// CandidateSource produces a deduplicated, scored batch of candidate
// tokens per scan.
type CandidateSource interface {
	Scan(ctx context.Context) ([]domain.Candidate, error)
}

// PriceSource answers point price queries for a single token.
type PriceSource interface {
	CurrentPrice(ctx context.Context, tokenID string) (decimal.Decimal, error)
}
