/*
Package generic provides the domain-agnostic building blocks of the engine.

PURPOSE:
  Dates, periods, error taxonomy and decimal arithmetic helpers shared by
  every engine package. Nothing in here knows about companies, regions or
  electricity; those live in the energy, carbon, analytics, alerts and
  simulation packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Decimal helpers: percentages, percent change, clamping, sums
  - Fixed factors used across the engine (grams per kilogram, 100)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift, so
     co2eKg = kWh * intensity / 1000 holds exactly
  2. Zero-safe: Ratios with a zero denominator are defined as zero

SEE ALSO:
  - time.go: TimePoint calendar dates
  - period.go: Period windows and monthly buckets
  - errors.go: Validation / NotFound / PartialImport errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

var (
	// Hundred converts ratios to percentages.
	Hundred = decimal.NewFromInt(100)

	// GramsPerKg converts grams of CO2e to kilograms.
	GramsPerKg = decimal.NewFromInt(1000)
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses s and panics on malformed input. Only for
// trusted literals.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(Hundred)
}

// ChangePercent returns (current-previous)/previous*100. A zero previous
// value yields zero regardless of current: there is no baseline to compare.
func ChangePercent(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(Hundred)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// NonNegative returns v, or zero if v is negative.
func NonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// InUnitInterval reports whether v is within [0, 1].
func InUnitInterval(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(decimal.NewFromInt(1))
}

// Float converts a decimal for JSON output. Precision loss is acceptable
// at the presentation boundary only.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Round2 rounds to two decimal places for display.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
