package engine

import (
	"testing"

	"tradewire/internal/gateway/exchange"
	"tradewire/internal/pkg/quant"
	"tradewire/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func legByRole(t *testing.T, plan ExitPlan, role exchange.OrderRole) ExitLeg {
	t.Helper()
	for _, leg := range plan.Legs {
		if leg.Role == role {
			return leg
		}
	}
	t.Fatalf("no %s leg in plan", role)
	return ExitLeg{}
}

func TestBuildExitPlanTriggers(t *testing.T) {
	tick := dec("0.01")
	minCB := dec("0.1")

	t.Run("long take profit divides roi by leverage", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("50000"),
			Leverage:        dec("10"),
			TickSize:        tick,
			TakeProfitPct:   dec("10"),
			MinCallbackRate: minCB,
		})
		require.Len(t, plan.Legs, 1)
		leg := plan.Legs[0]
		assert.Equal(t, exchange.TakeProfitMarket, leg.Type)
		// 10% ROI at 10x is a 1% price move.
		assert.Equal(t, "50500.00", quant.FormatFixed(leg.TriggerPrice, 2))
	})

	t.Run("long stop loss mirrors below entry", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("50000"),
			Leverage:        dec("10"),
			TickSize:        tick,
			StopLossPct:     dec("5"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleStopLoss)
		assert.Equal(t, exchange.StopMarket, leg.Type)
		assert.Equal(t, "49750.00", quant.FormatFixed(leg.TriggerPrice, 2))
	})

	t.Run("short side flips both directions", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideShort,
			EntryPrice:      dec("50000"),
			Leverage:        dec("10"),
			TickSize:        tick,
			TakeProfitPct:   dec("10"),
			StopLossPct:     dec("5"),
			MinCallbackRate: minCB,
		})
		tp := legByRole(t, plan, exchange.RoleTakeProfit)
		sl := legByRole(t, plan, exchange.RoleStopLoss)
		assert.Equal(t, "49500.00", quant.FormatFixed(tp.TriggerPrice, 2))
		assert.Equal(t, "50250.00", quant.FormatFixed(sl.TriggerPrice, 2))
	})

	t.Run("zero leverage means raw price move", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("100"),
			Leverage:        decimal.Zero,
			TickSize:        tick,
			TakeProfitPct:   dec("10"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleTakeProfit)
		assert.Equal(t, "110.00", quant.FormatFixed(leg.TriggerPrice, 2))
	})

	t.Run("triggers land on the tick grid", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("123.456"),
			Leverage:        dec("3"),
			TickSize:        dec("0.1"),
			TakeProfitPct:   dec("7"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleTakeProfit)
		rem := leg.TriggerPrice.Mod(dec("0.1"))
		assert.True(t, rem.IsZero(), "trigger %s not on tick grid", leg.TriggerPrice)
	})
}

func TestBuildExitPlanTrailing(t *testing.T) {
	minCB := dec("0.1")

	t.Run("callback below venue minimum is clamped", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("50000"),
			Leverage:        dec("20"),
			TickSize:        dec("0.01"),
			TrailingPct:     dec("0.5"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleTrailingStop)
		assert.Equal(t, exchange.TrailingStopMarket, leg.Type)
		assert.Equal(t, "0.1", leg.CallbackRate.String())
		assert.True(t, leg.Clamped)
		assert.True(t, leg.TriggerPrice.IsZero())
	})

	t.Run("callback above minimum passes through on the 0.1 grid", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideLong,
			EntryPrice:      dec("50000"),
			Leverage:        dec("2"),
			TickSize:        dec("0.01"),
			TrailingPct:     dec("3"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleTrailingStop)
		assert.Equal(t, "1.5", leg.CallbackRate.String())
		assert.False(t, leg.Clamped)
	})

	t.Run("fractional callback truncates to one decimal", func(t *testing.T) {
		plan := BuildExitPlan(PlanInput{
			Side:            types.SideShort,
			EntryPrice:      dec("50000"),
			Leverage:        dec("3"),
			TickSize:        dec("0.01"),
			TrailingPct:     dec("2"),
			MinCallbackRate: minCB,
		})
		leg := legByRole(t, plan, exchange.RoleTrailingStop)
		// 2/3 = 0.666... truncated down to the venue grid.
		assert.Equal(t, "0.6", leg.CallbackRate.String())
		assert.False(t, leg.Clamped)
	})
}

func TestBuildExitPlanEmpty(t *testing.T) {
	plan := BuildExitPlan(PlanInput{
		Side:            types.SideLong,
		EntryPrice:      dec("50000"),
		Leverage:        dec("10"),
		TickSize:        dec("0.01"),
		MinCallbackRate: dec("0.1"),
	})
	assert.True(t, plan.Empty())
}
