package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// ClosedTradeStore implements storage.ClosedTradeStore using PostgreSQL.
type ClosedTradeStore struct {
	pool *Pool
}

// NewClosedTradeStore creates a new ClosedTradeStore.
func NewClosedTradeStore(pool *Pool) *ClosedTradeStore {
	return &ClosedTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

const closedTradeColumns = `
	trade_id, token_id, symbol,
	entry_base_price, entry_fill_price, exit_price, exit_reason,
	position_size, realized_pnl, pnl_percent, percent_change, partially_closed,
	opened_at, closed_at, hold_duration_ms, highest_price,
	quality_score, market_cap, liquidity, volume_24h,
	price_change_5m, price_change_1h, price_change_24h, txns_24h, source_tag
`

// NUMERIC columns are selected as text and parsed into decimals on
// scan, keeping floats out of the money path.
const closedTradeSelectColumns = `
	trade_id, token_id, symbol,
	entry_base_price::text, entry_fill_price::text, exit_price::text, exit_reason,
	position_size::text, realized_pnl::text, pnl_percent, percent_change, partially_closed,
	opened_at, closed_at, hold_duration_ms, highest_price::text,
	quality_score, market_cap, liquidity, volume_24h,
	price_change_5m, price_change_1h, price_change_24h, txns_24h, source_tag
`

const insertClosedTrade = `
	INSERT INTO closed_trades (` + closedTradeColumns + `) VALUES (
		$1, $2, $3,
		$4, $5, $6, $7,
		$8, $9, $10, $11, $12,
		$13, $14, $15, $16,
		$17, $18, $19, $20,
		$21, $22, $23, $24, $25
	)
`

// insertArgs flattens a trade into the insert parameter list. Decimal
// amounts travel as strings so NUMERIC columns never see a float.
func insertArgs(t *domain.ClosedTrade) []interface{} {
	return []interface{}{
		t.TradeID, t.TokenID, t.Symbol,
		t.EntryBasePrice.String(), t.EntryFillPrice.String(), t.ExitPrice.String(), t.ExitReason,
		t.PositionSize.String(), t.RealizedPnl.String(), t.PnlPercent, t.PercentChange, t.PartiallyClosed,
		t.OpenedAt, t.ClosedAt, t.HoldDuration.Milliseconds(), t.HighestPrice.String(),
		t.QualityScore, t.MarketCap, t.Liquidity, t.Volume24h,
		t.PriceChange5m, t.PriceChange1h, t.PriceChange24h, t.Txns24h, t.SourceTag,
	}
}

// Insert adds a closed trade. Returns ErrDuplicateKey if trade_id exists.
func (s *ClosedTradeStore) Insert(ctx context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertClosedTrade, insertArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert closed trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *ClosedTradeStore) InsertBulk(ctx context.Context, trades []*domain.ClosedTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertClosedTrade, insertArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert closed trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *ClosedTradeStore) GetByID(ctx context.Context, tradeID string) (*domain.ClosedTrade, error) {
	query := `SELECT ` + closedTradeSelectColumns + ` FROM closed_trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanClosedTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get closed trade by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by close time ASC.
func (s *ClosedTradeStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT ` + closedTradeSelectColumns + `
		FROM closed_trades
		WHERE symbol = $1
		ORDER BY closed_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// GetByTimeRange retrieves trades closed within [start, end] (inclusive).
func (s *ClosedTradeStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT ` + closedTradeSelectColumns + `
		FROM closed_trades
		WHERE closed_at >= $1 AND closed_at <= $2
		ORDER BY closed_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by time range: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// GetAll retrieves every trade, ordered by close time ASC.
func (s *ClosedTradeStore) GetAll(ctx context.Context) ([]*domain.ClosedTrade, error) {
	query := `
		SELECT ` + closedTradeSelectColumns + `
		FROM closed_trades
		ORDER BY closed_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all closed trades: %w", err)
	}
	defer rows.Close()

	return scanClosedTrades(rows)
}

// scanClosedTrade scans a single row into a ClosedTrade.
func scanClosedTrade(row pgx.Row) (*domain.ClosedTrade, error) {
	var (
		t              domain.ClosedTrade
		entryBase      string
		entryFill      string
		exitPrice      string
		positionSize   string
		realizedPnl    string
		highestPrice   string
		holdDurationMs int64
	)

	err := row.Scan(
		&t.TradeID, &t.TokenID, &t.Symbol,
		&entryBase, &entryFill, &exitPrice, &t.ExitReason,
		&positionSize, &realizedPnl, &t.PnlPercent, &t.PercentChange, &t.PartiallyClosed,
		&t.OpenedAt, &t.ClosedAt, &holdDurationMs, &highestPrice,
		&t.QualityScore, &t.MarketCap, &t.Liquidity, &t.Volume24h,
		&t.PriceChange5m, &t.PriceChange1h, &t.PriceChange24h, &t.Txns24h, &t.SourceTag,
	)
	if err != nil {
		return nil, err
	}

	t.HoldDuration = time.Duration(holdDurationMs) * time.Millisecond
	for _, conv := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{entryBase, &t.EntryBasePrice},
		{entryFill, &t.EntryFillPrice},
		{exitPrice, &t.ExitPrice},
		{positionSize, &t.PositionSize},
		{realizedPnl, &t.RealizedPnl},
		{highestPrice, &t.HighestPrice},
	} {
		d, err := decimal.NewFromString(conv.raw)
		if err != nil {
			return nil, fmt.Errorf("parse decimal column: %w", err)
		}
		*conv.dst = d
	}
	return &t, nil
}

// scanClosedTrades scans multiple rows into a slice of ClosedTrade.
func scanClosedTrades(rows pgx.Rows) ([]*domain.ClosedTrade, error) {
	var trades []*domain.ClosedTrade

	for rows.Next() {
		t, err := scanClosedTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closed trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed trade rows: %w", err)
	}
	return trades, nil
}
