// Package quant aligns prices and quantities to an instrument's legal
// increments using exact decimal arithmetic.
package quant

import "github.com/shopspring/decimal"

// StepPrecision returns the number of fractional digits carried by a step
// size, e.g. 0.001 -> 3, 0.50 -> 2, 1 -> 0.
func StepPrecision(step decimal.Decimal) int32 {
	if exp := step.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// QuantizeDown returns the largest multiple of step that does not exceed
// value. The result is numerically exact; FormatFixed renders it with
// step's fractional digits for the wire. A non-positive step leaves value
// untouched.
func QuantizeDown(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	// Mod is exact (QuoRem), so the subtraction can never cross a step
	// boundary the way a rounded division would near a multiple.
	return value.Sub(value.Mod(step))
}

// FormatFixed renders value with exactly precision fractional digits,
// zero-padded, as exchanges expect on the wire.
func FormatFixed(value decimal.Decimal, precision int32) string {
	return value.StringFixed(precision)
}
