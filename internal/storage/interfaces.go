// Package storage defines the persistence interfaces for the paper
// trader. Closed trades are an append-only ledger; price ticks are an
// append-only observation stream. Implementations live in memory,
// postgres and clickhouse subpackages.
package storage

import (
	"context"
	"time"

	"solana-paper-trader/internal/domain"
)

// ClosedTradeStore persists the append-only closed-trade ledger.
type ClosedTradeStore interface {
	// Insert adds a closed trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.ClosedTrade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.ClosedTrade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.ClosedTrade, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by close time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.ClosedTrade, error)

	// GetByTimeRange retrieves trades closed within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.ClosedTrade, error)

	// GetAll retrieves every trade, ordered by close time ASC.
	GetAll(ctx context.Context) ([]*domain.ClosedTrade, error)
}

// PriceTickStore persists observed price ticks.
type PriceTickStore interface {
	// InsertBulk adds multiple ticks.
	InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error

	// GetByToken retrieves all ticks for a token, ordered by observation time ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.PriceTick, error)

	// GetByTimeRange retrieves ticks for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, tokenID string, start, end time.Time) ([]*domain.PriceTick, error)
}
