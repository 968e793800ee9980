// Package core holds the domain types shared by the ledger, the
// aggregation queries and the delivery layers.
//
// This file contains amount parsing and formatting. Amounts are carried
// as integer cents so SQL aggregation stays exact; decimal conversion
// happens only at the boundary.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in integer cents. Currency-agnostic.
type Amount struct {
	Cents int64
}

// maxParseableCents bounds accepted input well below int64 overflow when
// summing a large ledger.
var maxParseableCents = decimal.New(1, 16) // 10^16 cents

// ParseAmount converts a decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up on the third decimal place. Empty, non-numeric, zero and
// negative inputs are rejected with ErrInvalidAmount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Amount{}, ErrInvalidAmount
	}

	cents := d.Shift(2).Round(0)
	if cents.IsZero() || cents.GreaterThan(maxParseableCents) {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Cents: cents.IntPart()}, nil
}

// Decimal returns the value in major currency units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Cents, -2)
}

// String formats the amount with two decimal places, e.g. "50000.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Sub returns a minus b. Used for balance derivation; the result may be
// negative, which signals overdraft or a data-entry issue, not an error.
func (a Amount) Sub(b Amount) Amount {
	return Amount{Cents: a.Cents - b.Cents}
}
