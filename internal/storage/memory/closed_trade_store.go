// Package memory provides in-memory store implementations, used in
// tests and when the trader runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// ClosedTradeStore is an in-memory implementation of storage.ClosedTradeStore.
type ClosedTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ClosedTrade // keyed by trade_id
}

// NewClosedTradeStore creates a new in-memory closed trade store.
func NewClosedTradeStore() *ClosedTradeStore {
	return &ClosedTradeStore{
		data: make(map[string]*domain.ClosedTrade),
	}
}

// Compile-time interface check.
var _ storage.ClosedTradeStore = (*ClosedTradeStore)(nil)

// Insert adds a closed trade. Returns ErrDuplicateKey if trade_id exists.
func (s *ClosedTradeStore) Insert(_ context.Context, t *domain.ClosedTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.TradeID] = &cp
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *ClosedTradeStore) InsertBulk(_ context.Context, trades []*domain.ClosedTrade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		cp := *t
		s.data[t.TradeID] = &cp
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *ClosedTradeStore) GetByID(_ context.Context, tradeID string) (*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by close time ASC.
func (s *ClosedTradeStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ClosedTrade
	for _, t := range s.data {
		if t.Symbol == symbol {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTrades(out)
	return out, nil
}

// GetByTimeRange retrieves trades closed within [start, end] (inclusive).
func (s *ClosedTradeStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ClosedTrade
	for _, t := range s.data {
		if !t.ClosedAt.Before(start) && !t.ClosedAt.After(end) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTrades(out)
	return out, nil
}

// GetAll retrieves every trade, ordered by close time ASC.
func (s *ClosedTradeStore) GetAll(_ context.Context) ([]*domain.ClosedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ClosedTrade, 0, len(s.data))
	for _, t := range s.data {
		cp := *t
		out = append(out, &cp)
	}
	sortTrades(out)
	return out, nil
}

func sortTrades(trades []*domain.ClosedTrade) {
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].ClosedAt.Equal(trades[j].ClosedAt) {
			return trades[i].ClosedAt.Before(trades[j].ClosedAt)
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}
