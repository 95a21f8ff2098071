// Package ledger owns the trading session state: equity, open
// positions, the append-only closed-trade history and the seen-token
// suppression set. All mutations are serialized behind one mutex; the
// data model itself has no internal synchronization and assumes the
// engine applies ticks one at a time.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/accounting"
	"solana-paper-trader/internal/domain"
)

// Precondition errors. Opening a duplicate position or closing a
// missing one is a caller bug and fails loudly instead of no-opping.
var (
	ErrPositionExists     = errors.New("position already open for token")
	ErrNoPosition         = errors.New("no open position for token")
	ErrInsufficientEquity = errors.New("insufficient equity for position size")
)

// Options configures a Ledger.
type Options struct {
	StartingEquity decimal.Decimal
	Logger         *log.Logger
}

// Stats is a point-in-time summary of the session.
type Stats struct {
	Equity           decimal.Decimal
	DailyRealizedPnl decimal.Decimal
	OpenCount        int
	ClosedCount      int
	OpenedTotal      int
	WinStreak        int
	LossStreak       int
	BestTradePnl     decimal.Decimal
	WorstTradePnl    decimal.Decimal
}

// Ledger is the single owner of session trading state.
type Ledger struct {
	mu sync.Mutex

	equity           decimal.Decimal
	dailyRealizedPnl decimal.Decimal

	open   map[string]*domain.Position
	closed []domain.ClosedTrade
	seen   *seenSet

	openedTotal   int
	winStreak     int
	lossStreak    int
	bestTradePnl  decimal.Decimal
	worstTradePnl decimal.Decimal

	logger *log.Logger
}

// New constructs a Ledger with the given starting equity.
func New(opts Options) *Ledger {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{
		equity: opts.StartingEquity,
		open:   make(map[string]*domain.Position),
		seen:   newSeenSet(),
		logger: logger,
	}
}

// HasPosition reports whether a position is open for the token.
func (l *Ledger) HasPosition(tokenID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.open[tokenID]
	return ok
}

// RecentlySeen reports whether the token is inside its suppression
// window.
func (l *Ledger) RecentlySeen(tokenID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen.contains(tokenID, time.Now())
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

// DailyRealizedPnl returns realized P&L accumulated since the last
// daily reset. Unrealized P&L is never included.
func (l *Ledger) DailyRealizedPnl() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyRealizedPnl
}

// Equity returns the current free equity.
func (l *Ledger) Equity() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equity
}

// Open atomically creates a position for the candidate, debits equity
// by the gross position size and marks the token as seen. The size
// must already have been decided by the entry unit; the equity check
// repeats here so the debit can never go stale between decide and
// open.
func (l *Ledger) Open(c domain.Candidate, size decimal.Decimal, cfg domain.ConfigProfile, now time.Time) (*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.open[c.TokenID]; ok {
		return nil, fmt.Errorf("open %s: %w", c.TokenID, ErrPositionExists)
	}
	if l.equity.LessThan(size) {
		return nil, fmt.Errorf("open %s: %w", c.TokenID, ErrInsufficientEquity)
	}

	fill, netInvestment, units, err := accounting.OpenFill(c.PriceAtScan, size, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.TokenID, err)
	}

	pos := &domain.Position{
		TokenID:        c.TokenID,
		Symbol:         c.Symbol,
		EntryBasePrice: c.PriceAtScan,
		EntryFillPrice: fill,
		EntryTime:      now,
		PositionSize:   size,
		NetInvestment:  netInvestment,
		UnitsHeld:      units,
		CurrentPrice:   c.PriceAtScan,
		HighestPrice:   c.PriceAtScan,

		QualityScore:   c.QualityScore,
		MarketCap:      c.MarketCap,
		Liquidity:      c.Liquidity,
		Volume24h:      c.Volume24h,
		PriceChange5m:  c.PriceChange5m,
		PriceChange1h:  c.PriceChange1h,
		PriceChange24h: c.PriceChange24h,
		Txns24h:        c.Txns24h,
		SourceTag:      c.SourceTag,
	}

	l.equity = l.equity.Sub(size)
	l.open[c.TokenID] = pos
	l.openedTotal++
	l.seen.mark(c.TokenID, now.Add(cfg.SeenTokenTTL))

	l.logger.Printf("opened %s size=%s fill=%s units=%s score=%d",
		c.Symbol, size, fill, units.Round(6), c.QualityScore)
	return pos, nil
}

// MarkSeen records the token as evaluated so the entry unit skips it
// for the TTL window, without opening a position.
func (l *Ledger) MarkSeen(tokenID string, now time.Time, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen.mark(tokenID, now.Add(ttl))
}

// ApplyPartialClose sells the configured fraction of the position's
// units at the given market price. Net proceeds credit equity and the
// slice's P&L realizes immediately, not at final close.
func (l *Ledger) ApplyPartialClose(tokenID string, marketPrice decimal.Decimal, cfg domain.ConfigProfile) (netProceeds, pnl decimal.Decimal, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.open[tokenID]
	if !ok {
		return decimal.Zero, decimal.Zero, fmt.Errorf("partial close %s: %w", tokenID, ErrNoPosition)
	}
	if pos.PartiallyClosed {
		// The evaluator fires PARTIAL_TP1 at most once; a second call
		// is a caller bug.
		return decimal.Zero, decimal.Zero, fmt.Errorf("partial close %s: already partially closed", tokenID)
	}

	unitsSold, netProceeds, pnl := accounting.ComputePartialClose(pos, marketPrice, cfg.PartialCloseFraction, cfg)

	pos.PartiallyClosed = true
	pos.UnitsSold = unitsSold
	pos.PartialProceeds = netProceeds

	l.equity = l.equity.Add(netProceeds)
	l.dailyRealizedPnl = l.dailyRealizedPnl.Add(pnl)

	l.logger.Printf("partial close %s units=%s proceeds=%s pnl=%s",
		pos.Symbol, unitsSold.Round(6), netProceeds, pnl)
	return netProceeds, pnl, nil
}

// Close fully closes the position and appends its ClosedTrade record.
// Money amounts are recomputed here from the position's last recorded
// price; a P&L carried in from the exit verdict is never trusted.
// This is the only place a position is destroyed.
func (l *Ledger) Close(tokenID, reason string, cfg domain.ConfigProfile, now time.Time) (domain.ClosedTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.open[tokenID]
	if !ok {
		return domain.ClosedTrade{}, fmt.Errorf("close %s: %w", tokenID, ErrNoPosition)
	}

	pnl, netProceeds := accounting.ComputeUnrealized(pos, pos.CurrentPrice, cfg)

	// Realized increment for this close is the remaining slice only;
	// the partial slice realized when it was sold. Cost basis splits
	// pro rata by units.
	legPnl := pnl
	if pos.PartiallyClosed {
		remainingBasis := pos.PositionSize.Mul(pos.UnitsRemaining()).Div(pos.UnitsHeld)
		legPnl = accounting.Quantize(netProceeds.Sub(remainingBasis))
	}

	l.equity = l.equity.Add(netProceeds)
	l.dailyRealizedPnl = l.dailyRealizedPnl.Add(legPnl)

	trade := domain.ClosedTrade{
		TradeID:         uuid.NewString(),
		TokenID:         pos.TokenID,
		Symbol:          pos.Symbol,
		EntryBasePrice:  pos.EntryBasePrice,
		EntryFillPrice:  pos.EntryFillPrice,
		ExitPrice:       pos.CurrentPrice,
		ExitReason:      reason,
		PositionSize:    pos.PositionSize,
		RealizedPnl:     pnl,
		PnlPercent:      pnl.Div(pos.PositionSize).InexactFloat64() * 100,
		PercentChange:   pos.ChangeRatio(pos.CurrentPrice).InexactFloat64() * 100,
		PartiallyClosed: pos.PartiallyClosed,
		OpenedAt:        pos.EntryTime,
		ClosedAt:        now,
		HoldDuration:    now.Sub(pos.EntryTime),
		HighestPrice:    pos.HighestPrice,
		QualityScore:    pos.QualityScore,
		MarketCap:       pos.MarketCap,
		Liquidity:       pos.Liquidity,
		Volume24h:       pos.Volume24h,
		PriceChange5m:   pos.PriceChange5m,
		PriceChange1h:   pos.PriceChange1h,
		PriceChange24h:  pos.PriceChange24h,
		Txns24h:         pos.Txns24h,
		SourceTag:       pos.SourceTag,
	}

	l.closed = append(l.closed, trade)
	delete(l.open, tokenID)

	if pnl.IsPositive() {
		l.winStreak++
		l.lossStreak = 0
	} else {
		l.lossStreak++
		l.winStreak = 0
	}
	if len(l.closed) == 1 || pnl.GreaterThan(l.bestTradePnl) {
		l.bestTradePnl = pnl
	}
	if len(l.closed) == 1 || pnl.LessThan(l.worstTradePnl) {
		l.worstTradePnl = pnl
	}

	l.logger.Printf("closed %s reason=%s exit=%s pnl=%s equity=%s",
		pos.Symbol, reason, pos.CurrentPrice, pnl, l.equity)
	return trade, nil
}

// Positions returns the open positions. The pointers are live; callers
// mutate them only from the owning tick context.
func (l *Ledger) Positions() []*domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Position, 0, len(l.open))
	for _, pos := range l.open {
		out = append(out, pos)
	}
	return out
}

// Trades returns a copy of the closed-trade history in chronological
// order.
func (l *Ledger) Trades() []domain.ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ClosedTrade, len(l.closed))
	copy(out, l.closed)
	return out
}

// Stats returns a point-in-time session summary.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		Equity:           l.equity,
		DailyRealizedPnl: l.dailyRealizedPnl,
		OpenCount:        len(l.open),
		ClosedCount:      len(l.closed),
		OpenedTotal:      l.openedTotal,
		WinStreak:        l.winStreak,
		LossStreak:       l.lossStreak,
		BestTradePnl:     l.bestTradePnl,
		WorstTradePnl:    l.worstTradePnl,
	}
}

// ResetDaily zeroes the daily realized P&L, releasing a tripped
// circuit breaker. Open positions and history are untouched.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dailyRealizedPnl = decimal.Zero
}

// SweepSeen drops expired seen-token entries.
func (l *Ledger) SweepSeen(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen.sweep(now)
}
