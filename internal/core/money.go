// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, signed values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	// Only plain digits: no sign, no exponent.
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if s == "." {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(decimal.NewFromInt(maxSafeCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

const maxSafeCents = 1<<62 - 1

// MoneyFromDecimal rounds d to the nearest cent.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String formats the amount with two decimals, e.g. "145.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits the amount as a bare JSON number ("145.5").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}
