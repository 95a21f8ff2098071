package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceTick is one observed market price for a token, recorded for
// offline analysis of the engine's decisions.
type PriceTick struct {
	TokenID    string
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}
