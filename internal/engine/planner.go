package engine

import (
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/pkg/quant"
	"tradewire/internal/types"

	"github.com/shopspring/decimal"
)

var (
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)

	// The venue accepts trailing callback rates in 0.1% increments only.
	callbackStep = decimal.RequireFromString("0.1")
)

// PlanInput feeds the exit planner. Percentages are return-on-margin: the
// requested ROI divided by leverage gives the actual price move.
type PlanInput struct {
	Side       types.Side
	EntryPrice decimal.Decimal
	Leverage   decimal.Decimal
	TickSize   decimal.Decimal

	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal
	TrailingPct   decimal.Decimal

	// MinCallbackRate is the venue floor for trailing stops, percent units.
	MinCallbackRate decimal.Decimal
}

// ExitLeg is one protective order the supervisor will submit.
type ExitLeg struct {
	Role         exchange.OrderRole
	Type         exchange.OrderType
	TriggerPrice decimal.Decimal
	CallbackRate decimal.Decimal

	// Clamped marks a trailing callback that was raised to the venue
	// minimum, silently changing the requested risk.
	Clamped bool
}

// ExitPlan is the full set of protective orders for one filled entry.
// Computed once from the realized fill; never mutated.
type ExitPlan struct {
	Legs []ExitLeg
}

func (p ExitPlan) Empty() bool { return len(p.Legs) == 0 }

// BuildExitPlan derives protective order parameters from the realized entry
// price. A percentage <= 0 suppresses that leg. The planner never talks to
// the venue.
func BuildExitPlan(in PlanInput) ExitPlan {
	lev := in.Leverage
	if lev.Sign() <= 0 {
		// Non-leveraged variant: ROI equals the raw price move.
		lev = decOne
	}
	var plan ExitPlan

	if in.TakeProfitPct.Sign() > 0 {
		move := in.TakeProfitPct.Div(decHundred).Div(lev)
		plan.Legs = append(plan.Legs, ExitLeg{
			Role:         exchange.RoleTakeProfit,
			Type:         exchange.TakeProfitMarket,
			TriggerPrice: quant.QuantizeDown(profitPrice(in.Side, in.EntryPrice, move), in.TickSize),
		})
	}
	if in.StopLossPct.Sign() > 0 {
		move := in.StopLossPct.Div(decHundred).Div(lev)
		plan.Legs = append(plan.Legs, ExitLeg{
			Role:         exchange.RoleStopLoss,
			Type:         exchange.StopMarket,
			TriggerPrice: quant.QuantizeDown(lossPrice(in.Side, in.EntryPrice, move), in.TickSize),
		})
	}
	if in.TrailingPct.Sign() > 0 {
		raw := in.TrailingPct.Div(lev)
		rate := quant.QuantizeDown(raw, callbackStep)
		clamped := false
		if rate.LessThan(in.MinCallbackRate) {
			rate = in.MinCallbackRate
			clamped = true
		}
		plan.Legs = append(plan.Legs, ExitLeg{
			Role:         exchange.RoleTrailingStop,
			Type:         exchange.TrailingStopMarket,
			CallbackRate: rate,
			Clamped:      clamped,
		})
	}
	return plan
}

// profitPrice is the favorable-direction target: above entry for longs,
// below for shorts.
func profitPrice(side types.Side, entry, move decimal.Decimal) decimal.Decimal {
	if side == types.SideShort {
		return entry.Mul(decOne.Sub(move))
	}
	return entry.Mul(decOne.Add(move))
}

// lossPrice is the adverse-direction target, mirrored from profitPrice.
func lossPrice(side types.Side, entry, move decimal.Decimal) decimal.Decimal {
	if side == types.SideShort {
		return entry.Mul(decOne.Add(move))
	}
	return entry.Mul(decOne.Sub(move))
}
