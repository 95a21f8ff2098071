// Package engine drives the paper-trading session. Each tick refreshes
// prices for open positions, applies the exit policy through the
// ledger, persists the results, and scans the market for new entries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/entry"
	"solana-paper-trader/internal/exit"
	"solana-paper-trader/internal/ledger"
	"solana-paper-trader/internal/marketdata"
	"solana-paper-trader/internal/observability"
	"solana-paper-trader/internal/storage"
)

// DefaultPriceTimeout bounds each per-token price lookup within a tick.
const DefaultPriceTimeout = 5 * time.Second

// Options for creating an Engine.
type Options struct {
	Ledger     *ledger.Ledger
	Candidates marketdata.CandidateSource
	Prices     marketdata.PriceSource

	// Optional persistence sinks. The session runs entirely in memory
	// when they are nil.
	TradeStore storage.ClosedTradeStore
	TickStore  storage.PriceTickStore

	Profile      domain.ConfigProfile
	PriceTimeout time.Duration
	Logger       *log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine coordinates one trading session.
type Engine struct {
	ledger     *ledger.Ledger
	candidates marketdata.CandidateSource
	prices     marketdata.PriceSource
	tradeStore storage.ClosedTradeStore
	tickStore  storage.PriceTickStore

	priceTimeout time.Duration
	logger       *log.Logger
	now          func() time.Time

	mu      sync.RWMutex
	profile domain.ConfigProfile
	lastDay int // year*1000 + yday of the last daily reset
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, errors.New("engine: ledger is required")
	}
	if opts.Candidates == nil {
		return nil, errors.New("engine: candidate source is required")
	}
	if opts.Prices == nil {
		return nil, errors.New("engine: price source is required")
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	priceTimeout := opts.PriceTimeout
	if priceTimeout <= 0 {
		priceTimeout = DefaultPriceTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		ledger:       opts.Ledger,
		candidates:   opts.Candidates,
		prices:       opts.Prices,
		tradeStore:   opts.TradeStore,
		tickStore:    opts.TickStore,
		priceTimeout: priceTimeout,
		logger:       logger,
		now:          now,
		profile:      opts.Profile,
		lastDay:      dayOf(now()),
	}, nil
}

// Profile returns the active config profile.
func (e *Engine) Profile() domain.ConfigProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// SetProfile swaps the active profile wholesale. The new thresholds
// apply from the next tick; open positions are not re-evaluated early.
func (e *Engine) SetProfile(p domain.ConfigProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.profile = p
	e.mu.Unlock()
	e.logger.Printf("profile switched to %q", p.Name)
	return nil
}

// TickResult summarizes one tick for logging and tests.
type TickResult struct {
	PricesFetched   int
	PriceErrors     int
	PartialCloses   int
	PositionsClosed int
	CandidatesSeen  int
	EntriesOpened   int
}

// Run ticks at the profile's scan interval until the context is
// cancelled. Tick errors are logged and do not stop the session.
func (e *Engine) Run(ctx context.Context) error {
	cfg := e.Profile()
	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	e.logger.Printf("engine started, profile %q, scan interval %v", cfg.Name, cfg.ScanInterval)

	for {
		if _, err := e.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				e.logger.Println("engine stopping...")
				return ctx.Err()
			}
			e.logger.Printf("tick failed: %v", err)
		}

		// Profile swaps may change the cadence.
		if next := e.Profile().ScanInterval; next != cfg.ScanInterval {
			cfg = e.Profile()
			ticker.Reset(cfg.ScanInterval)
		}

		select {
		case <-ctx.Done():
			e.logger.Println("engine stopping...")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one full cycle: daily reset, price refresh, exit
// evaluation, persistence, seen-set sweep, entry scan.
func (e *Engine) Tick(ctx context.Context) (TickResult, error) {
	started := e.now()
	cfg := e.Profile()
	var res TickResult

	e.resetAtDayBoundary(started)

	quotes, ticks, priceErrs := e.fetchPrices(ctx, started)
	res.PricesFetched = len(quotes)
	res.PriceErrors = priceErrs

	closed := e.applyExits(quotes, cfg, started, &res)

	e.persist(ctx, closed, ticks)

	e.ledger.SweepSeen(started)

	if err := e.scanEntries(ctx, cfg, started, &res); err != nil {
		e.logger.Printf("candidate scan failed: %v", err)
	}

	stats := e.ledger.Stats()
	observability.UpdatePortfolio(
		stats.OpenCount,
		stats.Equity.InexactFloat64(),
		stats.DailyRealizedPnl.InexactFloat64(),
		stats.DailyRealizedPnl.LessThanOrEqual(cfg.MaxDailyLoss),
	)
	observability.RecordScan(e.now().Sub(started).Seconds())

	return res, ctx.Err()
}

// resetAtDayBoundary zeroes the daily realized pnl once per calendar day.
func (e *Engine) resetAtDayBoundary(now time.Time) {
	day := dayOf(now)
	e.mu.Lock()
	crossed := day != e.lastDay
	if crossed {
		e.lastDay = day
	}
	e.mu.Unlock()

	if crossed {
		e.ledger.ResetDaily()
		e.logger.Println("daily pnl reset")
	}
}

func dayOf(t time.Time) int {
	return t.Year()*1000 + t.YearDay()
}

// fetchPrices refreshes every open position's price concurrently. A
// token whose lookup fails is skipped this tick; its position is
// simply held until the next observation.
func (e *Engine) fetchPrices(ctx context.Context, now time.Time) (map[string]decimal.Decimal, []*domain.PriceTick, int) {
	positions := e.ledger.Positions()

	type quote struct {
		tokenID string
		symbol  string
		price   decimal.Decimal
		err     error
	}

	results := make(chan quote, len(positions))
	var wg sync.WaitGroup
	for _, pos := range positions {
		wg.Add(1)
		go func(tokenID, symbol string) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, e.priceTimeout)
			defer cancel()

			fetchStart := time.Now()
			price, err := e.prices.CurrentPrice(fetchCtx, tokenID)
			observability.RecordPriceFetch(time.Since(fetchStart).Seconds(), err)

			results <- quote{tokenID: tokenID, symbol: symbol, price: price, err: err}
		}(pos.TokenID, pos.Symbol)
	}
	wg.Wait()
	close(results)

	quotes := make(map[string]decimal.Decimal, len(positions))
	var ticks []*domain.PriceTick
	errCount := 0
	for q := range results {
		if q.err != nil {
			errCount++
			e.logger.Printf("price fetch failed for %s: %v", q.tokenID, q.err)
			continue
		}
		quotes[q.tokenID] = q.price
		ticks = append(ticks, &domain.PriceTick{
			TokenID:    q.tokenID,
			Symbol:     q.symbol,
			Price:      q.price,
			ObservedAt: now,
		})
	}
	return quotes, ticks, errCount
}

// applyExits evaluates each position with a fresh quote, in token
// order, and applies the verdicts through the ledger.
func (e *Engine) applyExits(quotes map[string]decimal.Decimal, cfg domain.ConfigProfile, now time.Time, res *TickResult) []*domain.ClosedTrade {
	tokenIDs := make([]string, 0, len(quotes))
	for id := range quotes {
		tokenIDs = append(tokenIDs, id)
	}
	sort.Strings(tokenIDs)

	var closed []*domain.ClosedTrade
	for _, tokenID := range tokenIDs {
		pos, ok := e.position(tokenID)
		if !ok {
			continue
		}

		verdict := exit.Evaluate(pos, quotes[tokenID], cfg, now)
		switch verdict.Action {
		case exit.PartialClose:
			proceeds, pnl, err := e.ledger.ApplyPartialClose(tokenID, quotes[tokenID], cfg)
			if err != nil {
				e.logger.Printf("partial close failed for %s: %v", tokenID, err)
				continue
			}
			res.PartialCloses++
			observability.RecordPartialClose()
			e.logger.Printf("partial close %s (%s): proceeds=%s pnl=%s",
				pos.Symbol, tokenID, proceeds, pnl)

		case exit.FullClose:
			trade, err := e.ledger.Close(tokenID, verdict.Reason, cfg, now)
			if err != nil {
				e.logger.Printf("close failed for %s: %v", tokenID, err)
				continue
			}
			closed = append(closed, &trade)
			res.PositionsClosed++
			observability.RecordExit(trade.ExitReason)
			e.logger.Printf("closed %s (%s): reason=%s pnl=%s (%.2f%%) held=%v",
				trade.Symbol, tokenID, trade.ExitReason, trade.RealizedPnl,
				trade.PnlPercent, trade.HoldDuration)
		}
	}
	return closed
}

func (e *Engine) position(tokenID string) (*domain.Position, bool) {
	for _, pos := range e.ledger.Positions() {
		if pos.TokenID == tokenID {
			return pos, true
		}
	}
	return nil, false
}

// persist writes the tick's closed trades and price observations to
// the configured sinks. Storage failures are logged, not fatal; the
// in-memory ledger stays the source of truth for the session.
func (e *Engine) persist(ctx context.Context, closed []*domain.ClosedTrade, ticks []*domain.PriceTick) {
	if e.tradeStore != nil && len(closed) > 0 {
		err := e.tradeStore.InsertBulk(ctx, closed)
		observability.RecordPersist("trades", len(closed), err)
		if err != nil {
			e.logger.Printf("persist closed trades failed: %v", err)
		}
	}

	if e.tickStore != nil && len(ticks) > 0 {
		err := e.tickStore.InsertBulk(ctx, ticks)
		observability.RecordPersist("ticks", len(ticks), err)
		if err != nil {
			e.logger.Printf("persist price ticks failed: %v", err)
		}
	}
}

// scanEntries pulls fresh candidates and opens positions for the ones
// the entry policy accepts, up to the per-scan cap. Every decided
// candidate is marked seen so it is not reconsidered within the TTL.
func (e *Engine) scanEntries(ctx context.Context, cfg domain.ConfigProfile, now time.Time, res *TickResult) error {
	candidates, err := e.candidates.Scan(ctx)
	if err != nil {
		return err
	}
	res.CandidatesSeen = len(candidates)

	opened := 0
	for _, c := range candidates {
		if opened >= cfg.MaxEntriesPerScan {
			break
		}
		observability.RecordCandidate()

		decision := entry.Decide(c, e.ledger, cfg)
		if !decision.Accept {
			observability.RecordRejection(decision.Reason)
			// Skip-class rejections leave the token eligible for the
			// next scan; filter rejections suppress it for the TTL.
			if decision.Reason != entry.RejectOpenPosition &&
				decision.Reason != entry.RejectRecentlySeen &&
				decision.Reason != entry.RejectCircuitBreaker &&
				decision.Reason != entry.RejectMaxPositions &&
				decision.Reason != entry.RejectEquity {
				e.ledger.MarkSeen(c.TokenID, now, cfg.SeenTokenTTL)
			}
			continue
		}

		pos, err := e.ledger.Open(c, decision.Size, cfg, now)
		if err != nil {
			e.logger.Printf("open failed for %s: %v", c.TokenID, err)
			continue
		}
		opened++
		res.EntriesOpened++
		observability.RecordEntry()
		e.logger.Printf("opened %s (%s): size=%s fill=%s score=%d",
			pos.Symbol, pos.TokenID, pos.PositionSize, pos.EntryFillPrice, pos.QualityScore)
	}
	return nil
}
