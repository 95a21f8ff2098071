package entry

import (
	"testing"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

type fakeView struct {
	hasPosition bool
	seen        bool
	openCount   int
	dailyPnl    decimal.Decimal
	equity      decimal.Decimal
}

func (v *fakeView) HasPosition(string) bool           { return v.hasPosition }
func (v *fakeView) RecentlySeen(string) bool          { return v.seen }
func (v *fakeView) OpenCount() int                    { return v.openCount }
func (v *fakeView) DailyRealizedPnl() decimal.Decimal { return v.dailyPnl }
func (v *fakeView) Equity() decimal.Decimal           { return v.equity }

func healthyView() *fakeView {
	return &fakeView{equity: decimal.NewFromInt(500)}
}

// goodCandidate passes every filter under the normal profile.
func goodCandidate() domain.Candidate {
	return domain.Candidate{
		TokenID:       "mint-1",
		Symbol:        "GOOD",
		PriceAtScan:   decimal.NewFromFloat(0.0005),
		MarketCap:     100_000,
		Liquidity:     50_000,
		Volume24h:     150_000,
		PriceChange5m: 0.1,
		PriceChange1h: 2.0,
		QualityScore:  55,
	}
}

func TestDecide_AcceptsHealthyCandidate(t *testing.T) {
	d := Decide(goodCandidate(), healthyView(), domain.ProfileNormal)
	if !d.Accept {
		t.Fatalf("expected accept, rejected with %s", d.Reason)
	}
	// score 55 steps the base size by 1.2x.
	if want := decimal.NewFromFloat(14.4); !d.Size.Equal(want) {
		t.Errorf("expected size %s, got %s", want, d.Size)
	}
}

func TestDecide_RejectionOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Candidate, *fakeView)
		reason string
	}{
		{"open position", func(c *domain.Candidate, v *fakeView) {
			v.hasPosition = true
		}, RejectOpenPosition},
		{"recently seen", func(c *domain.Candidate, v *fakeView) {
			v.seen = true
		}, RejectRecentlySeen},
		{"circuit breaker", func(c *domain.Candidate, v *fakeView) {
			v.dailyPnl = decimal.NewFromInt(-100)
		}, RejectCircuitBreaker},
		{"low score", func(c *domain.Candidate, v *fakeView) {
			c.QualityScore = 10
		}, RejectLowScore},
		{"weak momentum both windows", func(c *domain.Candidate, v *fakeView) {
			c.PriceChange1h = 0.1
			c.PriceChange5m = 0.05
		}, RejectWeakMomentum},
		{"market cap too small", func(c *domain.Candidate, v *fakeView) {
			c.MarketCap = 1000
		}, RejectMarketCap},
		{"market cap too large", func(c *domain.Candidate, v *fakeView) {
			c.MarketCap = 10_000_000
			c.Volume24h = 20_000_000
		}, RejectMarketCap},
		{"thin liquidity", func(c *domain.Candidate, v *fakeView) {
			c.Liquidity = 1000
		}, RejectLiquidity},
		{"low volume ratio", func(c *domain.Candidate, v *fakeView) {
			c.Volume24h = 10_000
		}, RejectVolumeRatio},
		{"max positions", func(c *domain.Candidate, v *fakeView) {
			v.openCount = domain.ProfileNormal.MaxConcurrentPositions
		}, RejectMaxPositions},
		{"insufficient equity", func(c *domain.Candidate, v *fakeView) {
			v.equity = decimal.NewFromInt(5)
		}, RejectEquity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := goodCandidate()
			v := healthyView()
			tc.mutate(&c, v)

			d := Decide(c, v, domain.ProfileNormal)
			if d.Accept {
				t.Fatal("expected rejection")
			}
			if d.Reason != tc.reason {
				t.Errorf("expected %s, got %s", tc.reason, d.Reason)
			}
		})
	}
}

func TestDecide_MomentumEitherWindowSuffices(t *testing.T) {
	// Weak hourly change but a strong 5-minute burst passes.
	c := goodCandidate()
	c.PriceChange1h = 0.1
	c.PriceChange5m = 1.5

	if d := Decide(c, healthyView(), domain.ProfileNormal); !d.Accept {
		t.Errorf("expected accept on 5m burst, rejected with %s", d.Reason)
	}

	// Strong hourly change with a flat 5-minute window also passes.
	c = goodCandidate()
	c.PriceChange1h = 2.0
	c.PriceChange5m = 0.0

	if d := Decide(c, healthyView(), domain.ProfileNormal); !d.Accept {
		t.Errorf("expected accept on 1h trend, rejected with %s", d.Reason)
	}
}

func TestPositionSize_Steps(t *testing.T) {
	cfg := domain.ProfileNormal // base 12, cap 20

	cases := []struct {
		name   string
		score  int
		volume float64
		want   decimal.Decimal
	}{
		{"top tier capped", 80, 600_000, decimal.NewFromInt(20)},
		{"mid tier", 65, 150_000, decimal.NewFromInt(18)},
		{"entry tier", 55, 50_000, decimal.NewFromFloat(14.4)},
		{"base", 40, 600_000, decimal.NewFromInt(12)},
		{"high score low volume", 80, 50_000, decimal.NewFromFloat(14.4)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := domain.Candidate{QualityScore: tc.score, Volume24h: tc.volume}
			got := PositionSize(c, cfg)
			if !got.Equal(tc.want) {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
