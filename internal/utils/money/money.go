// Package money handles integer minor-currency-unit arithmetic. Monetary
// values are int64 satang end to end; decimal strings from external systems
// are converted exactly, never through float64.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExp is the number of decimal places in the major unit (2 for THB).
const minorUnitExp = 2

// ParseMajorUnits converts a major-unit amount string (e.g. "100.50") into
// minor units (10050). It fails if the string is not a number or carries more
// precision than the minor unit can represent.
func ParseMajorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid money string %q: %w", s, err)
	}
	return FromDecimal(d.Shift(minorUnitExp))
}

// FromDecimal asserts that d is a whole number of minor units and returns it
// as int64.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("money must be an integer amount of minor units, got %s", d.String())
	}
	return d.IntPart(), nil
}

// FromNumber converts a major-unit numeric value (as decoded from JSON) into
// minor units. The float is converted through decimal to avoid binary
// rounding surprises on values like 100.1. Values carrying more precision
// than the minor unit (e.g. 100.005) are rejected, never rounded.
func FromNumber(v float64) (int64, error) {
	return FromDecimal(decimal.NewFromFloat(v).Shift(minorUnitExp))
}

// Format renders minor units as a major-unit string with exactly two decimal
// places, e.g. 10050 -> "100.50".
func Format(minor int64) string {
	return decimal.New(minor, -minorUnitExp).StringFixed(minorUnitExp)
}

// Split divides total into parts integer shares whose sum is exactly total.
// The remainder is plugged onto the first share.
func Split(total int64, parts int) ([]int64, error) {
	if parts <= 0 {
		return nil, fmt.Errorf("parts must be > 0, got %d", parts)
	}
	base := total / int64(parts)
	remainder := total - base*int64(parts)

	result := make([]int64, parts)
	for i := range result {
		result[i] = base
	}
	result[0] += remainder

	var sum int64
	for _, v := range result {
		sum += v
	}
	if sum != total {
		return nil, fmt.Errorf("split sum mismatch: %d != %d", sum, total)
	}
	return result, nil
}
