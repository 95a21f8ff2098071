package ledger

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RecentlySeen checks against the wall clock, so the open time must be
// real time rather than a fixed date.
var openTime = time.Now()

func testProfile() domain.ConfigProfile {
	cfg := domain.ProfileNormal
	cfg.SlippagePct = dec("0.002")
	cfg.TransactionFee = dec("0.05")
	cfg.SeenTokenTTL = 10 * time.Minute
	return cfg
}

func testLedger() *Ledger {
	return New(Options{
		StartingEquity: decimal.NewFromInt(500),
		Logger:         log.New(io.Discard, "", 0),
	})
}

func candidate(tokenID string) domain.Candidate {
	return domain.Candidate{
		TokenID:     tokenID,
		Symbol:      "TEST",
		PriceAtScan: dec("1.00"),
	}
}

func TestOpen_DebitsEquityAndBlocksReentry(t *testing.T) {
	l := testLedger()
	cfg := testProfile()

	pos, err := l.Open(candidate("mint-1"), dec("20"), cfg, openTime)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !pos.EntryFillPrice.Equal(dec("1.002")) {
		t.Errorf("expected fill 1.002, got %s", pos.EntryFillPrice)
	}
	if !l.Equity().Equal(dec("480")) {
		t.Errorf("expected equity 480, got %s", l.Equity())
	}
	if !l.HasPosition("mint-1") || !l.RecentlySeen("mint-1") {
		t.Error("expected position open and token marked seen")
	}

	_, err = l.Open(candidate("mint-1"), dec("20"), cfg, openTime)
	if !errors.Is(err, ErrPositionExists) {
		t.Errorf("expected ErrPositionExists, got %v", err)
	}
}

func TestOpen_InsufficientEquity(t *testing.T) {
	l := New(Options{
		StartingEquity: decimal.NewFromInt(10),
		Logger:         log.New(io.Discard, "", 0),
	})

	_, err := l.Open(candidate("mint-1"), dec("20"), testProfile(), openTime)
	if !errors.Is(err, ErrInsufficientEquity) {
		t.Errorf("expected ErrInsufficientEquity, got %v", err)
	}
	if !l.Equity().Equal(dec("10")) {
		t.Errorf("equity mutated on failed open: %s", l.Equity())
	}
}

func TestClose_FlatPriceLosesExactlyFriction(t *testing.T) {
	// Round-tripping at an unchanged price loses precisely the two
	// fees plus the double slippage, never a spurious profit.
	l := testLedger()
	cfg := testProfile()

	if _, err := l.Open(candidate("mint-1"), dec("20"), cfg, openTime); err != nil {
		t.Fatalf("open: %v", err)
	}

	trade, err := l.Close("mint-1", domain.ExitReasonTimeout, cfg, openTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	wantPnl := dec("-0.17964072")
	if !trade.RealizedPnl.Equal(wantPnl) {
		t.Errorf("expected pnl %s, got %s", wantPnl, trade.RealizedPnl)
	}
	if !l.Equity().Equal(dec("500").Add(wantPnl)) {
		t.Errorf("expected equity %s, got %s", dec("500").Add(wantPnl), l.Equity())
	}
	if !l.DailyRealizedPnl().Equal(wantPnl) {
		t.Errorf("expected daily pnl %s, got %s", wantPnl, l.DailyRealizedPnl())
	}
	if l.HasPosition("mint-1") {
		t.Error("position not removed after close")
	}
	if trade.HoldDuration != time.Minute {
		t.Errorf("expected 1m hold, got %s", trade.HoldDuration)
	}
}

func TestClose_MissingPosition(t *testing.T) {
	l := testLedger()
	if _, err := l.Close("ghost", domain.ExitReasonTimeout, testProfile(), openTime); !errors.Is(err, ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
}

func TestPartialClose_RealizesOnceAndBalances(t *testing.T) {
	l := testLedger()
	cfg := testProfile()

	pos, err := l.Open(candidate("mint-1"), dec("20"), cfg, openTime)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	proceeds, partialPnl, err := l.ApplyPartialClose("mint-1", dec("1.04"), cfg)
	if err != nil {
		t.Fatalf("partial close: %v", err)
	}
	if !pos.PartiallyClosed {
		t.Fatal("expected partiallyClosed=true")
	}
	if !l.DailyRealizedPnl().Equal(partialPnl) {
		t.Errorf("partial pnl not realized immediately: %s", l.DailyRealizedPnl())
	}
	if !partialPnl.IsPositive() {
		t.Errorf("expected a profitable partial at +4%%, got %s", partialPnl)
	}

	// A second partial for the same position is a caller bug.
	if _, _, err := l.ApplyPartialClose("mint-1", dec("1.04"), cfg); err == nil {
		t.Fatal("expected error on second partial close")
	}

	pos.ObservePrice(dec("1.06"))
	trade, err := l.Close("mint-1", domain.ExitReasonTakeProfit, cfg, openTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	// Daily realized P&L over both legs must equal the trade's total,
	// counted exactly once.
	if !l.DailyRealizedPnl().Equal(trade.RealizedPnl) {
		t.Errorf("daily pnl %s != trade pnl %s", l.DailyRealizedPnl(), trade.RealizedPnl)
	}
	// Equity conservation: start + total pnl.
	wantEquity := dec("500").Add(trade.RealizedPnl)
	if !l.Equity().Equal(wantEquity) {
		t.Errorf("expected equity %s, got %s", wantEquity, l.Equity())
	}
	if !trade.PartiallyClosed {
		t.Error("closed trade lost the partial-close flag")
	}
	_ = proceeds
}

func TestClose_StreaksAndExtremes(t *testing.T) {
	l := testLedger()
	cfg := testProfile()

	runTrade := func(id, price string) decimal.Decimal {
		t.Helper()
		pos, err := l.Open(candidate(id), dec("20"), cfg, openTime)
		if err != nil {
			t.Fatalf("open %s: %v", id, err)
		}
		pos.ObservePrice(dec(price))
		trade, err := l.Close(id, domain.ExitReasonTakeProfit, cfg, openTime.Add(time.Minute))
		if err != nil {
			t.Fatalf("close %s: %v", id, err)
		}
		return trade.RealizedPnl
	}

	win := runTrade("a", "1.20")
	loss1 := runTrade("b", "0.95")
	loss2 := runTrade("c", "0.90")

	stats := l.Stats()
	if stats.WinStreak != 0 || stats.LossStreak != 2 {
		t.Errorf("expected streaks 0/2, got %d/%d", stats.WinStreak, stats.LossStreak)
	}
	if !stats.BestTradePnl.Equal(win) {
		t.Errorf("expected best %s, got %s", win, stats.BestTradePnl)
	}
	if !stats.WorstTradePnl.Equal(loss2) {
		t.Errorf("expected worst %s, got %s", loss2, stats.WorstTradePnl)
	}
	if stats.ClosedCount != 3 || stats.OpenedTotal != 3 {
		t.Errorf("expected 3 closed / 3 opened, got %d/%d", stats.ClosedCount, stats.OpenedTotal)
	}
	_ = loss1
}

func TestSeenSweep(t *testing.T) {
	l := testLedger()
	l.MarkSeen("mint-1", openTime, 10*time.Minute)

	if removed := l.SweepSeen(openTime.Add(5 * time.Minute)); removed != 0 {
		t.Errorf("swept a live entry: %d", removed)
	}
	if removed := l.SweepSeen(openTime.Add(11 * time.Minute)); removed != 1 {
		t.Errorf("expected 1 expired entry swept, got %d", removed)
	}
}

func TestResetDaily(t *testing.T) {
	l := testLedger()
	cfg := testProfile()

	if _, err := l.Open(candidate("mint-1"), dec("20"), cfg, openTime); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.Close("mint-1", domain.ExitReasonTimeout, cfg, openTime.Add(time.Minute)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if l.DailyRealizedPnl().IsZero() {
		t.Fatal("expected non-zero daily pnl before reset")
	}

	l.ResetDaily()
	if !l.DailyRealizedPnl().IsZero() {
		t.Errorf("expected zero daily pnl after reset, got %s", l.DailyRealizedPnl())
	}
	if l.Stats().ClosedCount != 1 {
		t.Error("reset must not touch trade history")
	}
}
