package ledger

import "time"

// seenSet suppresses re-evaluating a token within a TTL window.
// Entries are lazily swept by the engine between ticks.
type seenSet struct {
	expiry map[string]time.Time
}

func newSeenSet() *seenSet {
	return &seenSet{expiry: make(map[string]time.Time)}
}

func (s *seenSet) mark(tokenID string, until time.Time) {
	s.expiry[tokenID] = until
}

func (s *seenSet) contains(tokenID string, now time.Time) bool {
	until, ok := s.expiry[tokenID]
	if !ok {
		return false
	}
	return now.Before(until)
}

// sweep drops expired entries and reports how many were removed.
func (s *seenSet) sweep(now time.Time) int {
	removed := 0
	for id, until := range s.expiry {
		if !now.Before(until) {
			delete(s.expiry, id)
			removed++
		}
	}
	return removed
}
