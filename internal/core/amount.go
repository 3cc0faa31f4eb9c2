// Package core holds the pure domain: transactions, boundary validation and
// the summary engine. It performs no I/O.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts the user-entered magnitude into the signed amount the
// ledger stores. The text must be a plain non-negative decimal; a leading sign
// makes the stored sign ambiguous and is rejected. Expense magnitudes come out
// negated, Income magnitudes unchanged. Zero is legal for either type.
//
// Examples:
//
//	ParseAmount("12.34", Income)  -> 12.34
//	ParseAmount("12.34", Expense) -> -12.34
//	ParseAmount("0", Income)      -> 0
//	ParseAmount("abc", Income)    -> ErrInvalidAmount
func ParseAmount(s string, t TxType) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	magnitude, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	if t == Expense {
		return magnitude.Neg(), nil
	}
	return magnitude, nil
}
