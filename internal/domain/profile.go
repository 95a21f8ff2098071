package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfigProfile is an immutable bundle of trading thresholds.
// Profiles are selected wholesale; individual fields are never overridden.
// All percentage fields are fractions (0.03 = 3%).
type ConfigProfile struct {
	Name string // "normal" | "turbo"

	// Position sizing
	BasePositionSize decimal.Decimal // gross capital per entry (currency)
	MaxPositionSize  decimal.Decimal // sizing cap (currency)

	// Profit targets and stops
	TakeProfitPct1       decimal.Decimal // partial take-profit trigger
	TakeProfitPct2       decimal.Decimal // full take-profit trigger, > TakeProfitPct1
	StopLossPct          decimal.Decimal // hard stop, > 0
	PartialCloseFraction decimal.Decimal // fraction of units sold at TP1

	// Trailing stop: armed once unrealized gain exceeds the activation
	// threshold; distance tightens at the second threshold.
	TrailingActivationPct decimal.Decimal // gain that arms the trailing stop
	TrailingDistanceWide  decimal.Decimal // distance while gain < TrailingTightenPct
	TrailingTightenPct    decimal.Decimal // gain at which the tight distance applies
	TrailingDistanceTight decimal.Decimal

	// Stagnation exit
	StagnationVariancePct decimal.Decimal // (max-min)/current below this = flat window
	StagnationTicks       int             // consecutive flat ticks before NO_CHANGE

	// Timing
	MaxHold          time.Duration // hard timeout per position
	NoChangeSellTime time.Duration // informational pacing of the stagnation rule
	ScanInterval     time.Duration // tick cadence
	SeenTokenTTL     time.Duration // suppression window for re-evaluating a token

	// Entry filters
	MinTokenScore        int
	MinPriceIncreasePct  decimal.Decimal // momentum floor (fraction)
	MinMarketCap         float64
	MaxMarketCap         float64
	MinLiquidity         float64
	MinVolumeToMcapRatio float64

	// Throughput limits
	MaxConcurrentPositions int
	MaxEntriesPerScan      int

	// Friction model
	SlippagePct    decimal.Decimal // applied against the trader on every fill
	TransactionFee decimal.Decimal // flat fee per fill event (currency)

	// Circuit breaker: new entries halt for the session once
	// dailyRealizedPnl falls to this (negative) level.
	MaxDailyLoss decimal.Decimal
}

// Validate checks profile invariants.
func (p ConfigProfile) Validate() error {
	if !p.TakeProfitPct2.GreaterThan(p.TakeProfitPct1) || !p.TakeProfitPct1.GreaterThan(decimal.Zero) {
		return ErrInvalidProfile
	}
	if !p.StopLossPct.GreaterThan(decimal.Zero) {
		return ErrInvalidProfile
	}
	if p.TransactionFee.IsNegative() {
		return ErrInvalidProfile
	}
	if p.BasePositionSize.GreaterThan(p.MaxPositionSize) {
		return ErrInvalidProfile
	}
	return nil
}

// Predefined profiles. Switching between them replaces the active
// profile wholesale, never merges fields.
var (
	ProfileNormal = ConfigProfile{
		Name: "normal",

		BasePositionSize: decimal.NewFromInt(12),
		MaxPositionSize:  decimal.NewFromInt(20),

		TakeProfitPct1:       decimal.NewFromFloat(0.03),
		TakeProfitPct2:       decimal.NewFromFloat(0.05),
		StopLossPct:          decimal.NewFromFloat(0.025),
		PartialCloseFraction: decimal.NewFromFloat(0.5),

		TrailingActivationPct: decimal.NewFromFloat(0.15),
		TrailingDistanceWide:  decimal.NewFromFloat(0.08),
		TrailingTightenPct:    decimal.NewFromFloat(0.25),
		TrailingDistanceTight: decimal.NewFromFloat(0.05),

		StagnationVariancePct: decimal.NewFromFloat(0.003),
		StagnationTicks:       3,

		MaxHold:          3 * time.Minute,
		NoChangeSellTime: 15 * time.Second,
		ScanInterval:     500 * time.Millisecond,
		SeenTokenTTL:     10 * time.Minute,

		MinTokenScore:        25,
		MinPriceIncreasePct:  decimal.NewFromFloat(0.005),
		MinMarketCap:         5000,
		MaxMarketCap:         5000000,
		MinLiquidity:         5000,
		MinVolumeToMcapRatio: 1.0,

		MaxConcurrentPositions: 200,
		MaxEntriesPerScan:      8,

		SlippagePct:    decimal.NewFromFloat(0.002),
		TransactionFee: decimal.NewFromFloat(0.05),

		MaxDailyLoss: decimal.NewFromInt(-100),
	}

	ProfileTurbo = ConfigProfile{
		Name: "turbo",

		BasePositionSize: decimal.NewFromInt(12),
		MaxPositionSize:  decimal.NewFromInt(20),

		TakeProfitPct1:       decimal.NewFromFloat(0.02),
		TakeProfitPct2:       decimal.NewFromFloat(0.04),
		StopLossPct:          decimal.NewFromFloat(0.02),
		PartialCloseFraction: decimal.NewFromFloat(0.5),

		TrailingActivationPct: decimal.NewFromFloat(0.15),
		TrailingDistanceWide:  decimal.NewFromFloat(0.08),
		TrailingTightenPct:    decimal.NewFromFloat(0.25),
		TrailingDistanceTight: decimal.NewFromFloat(0.05),

		StagnationVariancePct: decimal.NewFromFloat(0.001),
		StagnationTicks:       2,

		MaxHold:          3 * time.Minute,
		NoChangeSellTime: 10 * time.Second,
		ScanInterval:     300 * time.Millisecond,
		SeenTokenTTL:     10 * time.Minute,

		MinTokenScore:        15,
		MinPriceIncreasePct:  decimal.NewFromFloat(0.002),
		MinMarketCap:         2000,
		MaxMarketCap:         5000000,
		MinLiquidity:         2000,
		MinVolumeToMcapRatio: 1.0,

		MaxConcurrentPositions: 300,
		MaxEntriesPerScan:      8,

		SlippagePct:    decimal.NewFromFloat(0.002),
		TransactionFee: decimal.NewFromFloat(0.05),

		MaxDailyLoss: decimal.NewFromInt(-100),
	}
)

// ProfileByName resolves a named profile.
func ProfileByName(name string) (ConfigProfile, error) {
	switch name {
	case ProfileNormal.Name:
		return ProfileNormal, nil
	case ProfileTurbo.Name:
		return ProfileTurbo, nil
	default:
		return ConfigProfile{}, ErrUnknownProfile
	}
}
