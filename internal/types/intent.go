// Package types holds the data shared between transport, dispatch and the
// trade engine.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the normalized direction of an inbound signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideExit  Side = "EXIT"
)

// ParseSide normalizes raw webhook actions. "FLAT" is an alias for EXIT.
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY", "LONG":
		return SideLong, nil
	case "SELL", "SHORT":
		return SideShort, nil
	case "EXIT", "FLAT":
		return SideExit, nil
	default:
		return "", fmt.Errorf("invalid order action: %q", raw)
	}
}

// Opposite returns the closing direction for a held side.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return s
	}
}

// TradeIntent is one validated inbound signal. It is immutable once built;
// the engine trusts every field without re-validation.
type TradeIntent struct {
	Symbol   string
	Side     Side
	SignalID string

	// Price is the reference price the signal was generated at. Required
	// for Long/Short, optional for Exit.
	Price decimal.Decimal

	// Leverage of zero marks the non-leveraged variant.
	Leverage decimal.Decimal

	// EquityFraction is the share of available margin to deploy, 0..1.
	EquityFraction decimal.Decimal

	// ROI percentages for protective orders. A value <= 0 suppresses that
	// protective leg entirely.
	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal
	TrailingPct   decimal.Decimal
}

// IsExit reports whether the intent closes an existing position rather than
// opening a new one.
func (t TradeIntent) IsExit() bool { return t.Side == SideExit }

// Leveraged reports whether the intent carries an explicit leverage.
func (t TradeIntent) Leveraged() bool { return t.Leverage.Sign() > 0 }
