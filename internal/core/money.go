// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and numbers, and the exact decimal text encoding of Money.
package core

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a non-negative decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is a valid amount.
// Returns ErrInvalidAmount for invalid formats, signs or overflow.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Leave room for the fractional cents and the rounding carry.
	const maxSafeInt64 = (1<<63-1)/100 - 1
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseAmount converts a submitted amount, either text or a number, into Money.
func ParseAmount(v any) (Money, error) {
	switch val := v.(type) {
	case Money:
		if err := val.Validate(); err != nil {
			return Money{}, err
		}
		return val, nil
	case string:
		cents, err := ParseDecimalToCents(val)
		if err != nil {
			return Money{}, err
		}
		return Money{Cents: cents}, nil
	case json.Number:
		return parseJSONNumber(val.String())
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
			return Money{}, ErrInvalidAmount
		}
		// Shortest round-trip text keeps 25.5 as "25.5" rather than a binary expansion.
		return ParseAmount(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return ParseAmount(float64(val))
	case int:
		return ParseAmount(int64(val))
	case int64:
		if val < 0 || val > math.MaxInt64/100 {
			return Money{}, ErrInvalidAmount
		}
		return Money{Cents: val * 100}, nil
	default:
		return Money{}, ErrInvalidAmount
	}
}

// maxExponent bounds exponent notation so "1e999999" is rejected before
// it is expanded.
const maxExponent = 20

// parseJSONNumber accepts plain decimals and exponent notation such as 1e2.
// Exponent values are rounded half-up to cents like plain decimals.
func parseJSONNumber(s string) (Money, error) {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return ParseAmount(s)
	}
	exp, err := strconv.Atoi(strings.TrimPrefix(s[i+1:], "+"))
	if err != nil || exp > maxExponent || exp < -maxExponent {
		return Money{}, ErrInvalidAmount
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() < 0 {
		return Money{}, ErrInvalidAmount
	}
	// FloatString rounds half away from zero, which is half-up for r >= 0.
	return ParseAmount(r.FloatString(2))
}

// Add returns the sum of two amounts. Ledger totals never overflow because
// the ledger rejects amounts that would push its running total past
// math.MaxInt64; see CheckedAdd.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// CheckedAdd returns the sum of two non-negative amounts and false when it
// does not fit in int64 cents.
func (m Money) CheckedAdd(o Money) (Money, bool) {
	if o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents {
		return Money{}, false
	}
	return Money{Cents: m.Cents + o.Cents}, true
}

// IsZero reports a zero amount.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String renders the exact decimal value with two fraction digits, e.g. "25.50".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + frac
}

// Dollars returns the value as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON encodes Money as an exact decimal number literal.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
