package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency conversion routes every cross-currency figure through the USD
// pivot. All three functions are pure over a table snapshot: for a fixed
// table, Convert(Convert(x, A, B), B, A) returns x up to decimal division
// precision. A refresh between the two calls may break the round trip, which
// is expected.

// ToPivot converts an amount in the given currency to USD.
func ToPivot(amount decimal.Decimal, from string, t *RateTable) decimal.Decimal {
	rate := t.Rate(from)
	if !rate.IsPositive() {
		return amount
	}
	return amount.Div(rate)
}

// FromPivot converts a USD amount into the given currency.
func FromPivot(amount decimal.Decimal, to string, t *RateTable) decimal.Decimal {
	return amount.Mul(t.Rate(to))
}

// Convert converts an amount between two currencies. Same-code conversions
// are the identity regardless of table contents.
func Convert(amount decimal.Decimal, from, to string, t *RateTable) decimal.Decimal {
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return amount
	}
	return FromPivot(ToPivot(amount, from, t), to, t)
}
