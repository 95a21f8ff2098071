package domain

import "github.com/shopspring/decimal"

// Candidate is a scored token snapshot supplied by the market data
// source. It is treated as an immutable input to entry evaluation.
type Candidate struct {
	TokenID string // mint address, unique within a scan batch
	Symbol  string
	Name    string

	PriceAtScan decimal.Decimal // quote price at scan time, > 0

	MarketCap      float64
	Liquidity      float64
	Volume24h      float64
	PriceChange5m  float64 // percentage, e.g. 2.5 = +2.5%
	PriceChange1h  float64
	PriceChange24h float64
	Txns24h        int

	QualityScore int    // scorer output, >= 0
	SourceTag    string // where the candidate was discovered
	Dex          string
}
