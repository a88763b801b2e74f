package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a COP-per-USD reference rate (TRM) and its validity window.
type Rate struct {
	Unit      string          `json:"unidad"`
	Value     decimal.Decimal `json:"valor"`
	ValidFrom string          `json:"vigenciadesde"`
	ValidTo   string          `json:"vigenciahasta"`
}

// UsdToCop converts for display only. Without a usable rate the amount is
// returned unchanged.
func UsdToCop(usd decimal.Decimal, rate *Rate) decimal.Decimal {
	if rate == nil || !rate.Value.IsPositive() {
		return usd
	}
	return usd.Mul(rate.Value)
}

// RateDateKey is the calendar-day key rates are cached under.
func RateDateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
