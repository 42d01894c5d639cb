// Package core holds the domain model of the finance tracker: money in
// integer minor units, user-owned categories, transactions, and budgets,
// plus the budget usage calculator shared by the dashboards.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer minor units ("cents"). All arithmetic
// happens on Cents; division by 100 is for display only.
type Money struct {
	Cents int64
}

// DefaultCurrency is the fallback for unrecognized currency codes.
const DefaultCurrency = "PYG"

var currencySymbols = map[string]string{
	"PYG": "Gs ",
	"USD": "$ ",
	"EUR": "€ ",
}

// Symbol returns the display symbol for a currency code.
func Symbol(currency string) string {
	if s, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return s
	}
	return currencySymbols[DefaultCurrency]
}

// Format renders the amount as symbol plus whole units with thousands
// separators. Cents are truncated, not rounded: 1050 cents formats as
// "Gs 10". No currency in this system displays minor-unit digits.
func (m Money) Format(currency string) string {
	units := m.Cents / 100
	neg := units < 0
	if neg {
		units = -units
	}
	s := groupThousands(units)
	if neg {
		return Symbol(currency) + "-" + s
	}
	return Symbol(currency) + s
}

// SignedFormat renders the amount with an explicit sign derived from the
// category type: income "+", expense "-". Storage never holds a sign.
func (m Money) SignedFormat(currency string, t CategoryType) string {
	units := m.Cents / 100
	if units < 0 {
		units = -units
	}
	sign := "+"
	if t == CategoryExpense {
		sign = "-"
	}
	return sign + Symbol(currency) + groupThousands(units)
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseDisplay is the inverse of Format, restricted to whole-unit
// strings: it strips the currency symbol and separators and returns the
// amount in cents. Fractional digits never survive the round trip.
func ParseDisplay(s, currency string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, strings.TrimSpace(Symbol(currency)))
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := units * 100
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// ParseDecimalToCents converts a decimal string from request input to
// cents. It accepts dot and comma separators and rounds the third
// decimal digit half-up. Only strictly positive amounts are accepted;
// transaction and budget amounts are stored as unsigned magnitudes.
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
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
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
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Validate rejects non-positive amounts. Magnitude columns never hold
// zero or negative values.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
