package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PriceTickStore implements storage.PriceTickStore using ClickHouse.
type PriceTickStore struct {
	conn *Conn
}

// NewPriceTickStore creates a new PriceTickStore.
func NewPriceTickStore(conn *Conn) *PriceTickStore {
	return &PriceTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// InsertBulk appends a batch of ticks. The stream is append-only and
// tolerates duplicate observations, so no duplicate check is made.
func (s *PriceTickStore) InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_ticks (
			token_id, symbol, price, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range ticks {
		err = batch.Append(t.TokenID, t.Symbol, t.Price, t.ObservedAt)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all ticks for a token, ordered by observation time ASC.
func (s *PriceTickStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.PriceTick, error) {
	query := `
		SELECT token_id, symbol, price, observed_at
		FROM price_ticks
		WHERE token_id = ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query by token id: %w", err)
	}
	defer rows.Close()

	return scanPriceTicks(rows)
}

// GetByTimeRange retrieves ticks for a token within [start, end] (inclusive).
func (s *PriceTickStore) GetByTimeRange(ctx context.Context, tokenID string, start, end time.Time) ([]*domain.PriceTick, error) {
	query := `
		SELECT token_id, symbol, price, observed_at
		FROM price_ticks
		WHERE token_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceTicks(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPriceTicks scans multiple rows into a slice.
func scanPriceTicks(rows chRows) ([]*domain.PriceTick, error) {
	var ticks []*domain.PriceTick

	for rows.Next() {
		var t domain.PriceTick
		err := rows.Scan(&t.TokenID, &t.Symbol, &t.Price, &t.ObservedAt)
		if err != nil {
			return nil, fmt.Errorf("scan price tick row: %w", err)
		}
		// DateTime64 comes back in the column's zone; normalize to UTC.
		t.ObservedAt = t.ObservedAt.UTC()
		ticks = append(ticks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price tick rows: %w", err)
	}

	return ticks, nil
}
