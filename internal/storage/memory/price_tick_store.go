package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PriceTickStore is an in-memory implementation of storage.PriceTickStore.
type PriceTickStore struct {
	mu    sync.RWMutex
	ticks []domain.PriceTick
}

// NewPriceTickStore creates a new in-memory price tick store.
func NewPriceTickStore() *PriceTickStore {
	return &PriceTickStore{}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// InsertBulk adds multiple ticks.
func (s *PriceTickStore) InsertBulk(_ context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range ticks {
		if t == nil || t.TokenID == "" {
			return storage.ErrInvalidInput
		}
		s.ticks = append(s.ticks, *t)
	}
	return nil
}

// GetByToken retrieves all ticks for a token, ordered by observation time ASC.
func (s *PriceTickStore) GetByToken(_ context.Context, tokenID string) ([]*domain.PriceTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PriceTick
	for i := range s.ticks {
		if s.ticks[i].TokenID == tokenID {
			cp := s.ticks[i]
			out = append(out, &cp)
		}
	}
	sortTicks(out)
	return out, nil
}

// GetByTimeRange retrieves ticks for a token within [start, end] (inclusive).
func (s *PriceTickStore) GetByTimeRange(_ context.Context, tokenID string, start, end time.Time) ([]*domain.PriceTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PriceTick
	for i := range s.ticks {
		t := s.ticks[i]
		if t.TokenID != tokenID {
			continue
		}
		if !t.ObservedAt.Before(start) && !t.ObservedAt.After(end) {
			cp := t
			out = append(out, &cp)
		}
	}
	sortTicks(out)
	return out, nil
}

func sortTicks(ticks []*domain.PriceTick) {
	sort.Slice(ticks, func(i, j int) bool {
		return ticks[i].ObservedAt.Before(ticks[j].ObservedAt)
	})
}
