// Package engine turns a validated trade intent into a fully managed
// position: it sizes and submits the entry, waits for the fill with
// bounded patience, places the protective orders derived from the realized
// fill, and supervises them until exactly one resolves the position.
package engine

import (
	"context"
	"time"

	"tradewire/internal/audit"
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/logger"
	"tradewire/internal/store/journal"
	"tradewire/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal receives order lifecycle events. A nil journal disables the
// order-event trail without affecting trading.
type Journal interface {
	Append(ctx context.Context, evt journal.OrderEvent) error
}

// Options bound every wait loop in the engine. Zero values fall back to
// the defaults the system was tuned with.
type Options struct {
	// MinNotional is the configured floor for order value; the venue's
	// own per-instrument floor is applied on top of it.
	MinNotional decimal.Decimal

	// MinCallbackRate is the venue's minimum trailing retracement,
	// percent units.
	MinCallbackRate decimal.Decimal

	EntryPollInterval time.Duration
	EntryWaitBudget   time.Duration
	ExitPollInterval  time.Duration

	// SettleWaitBudget bounds how long a flip waits for the old position
	// to report exactly zero before entering the new one.
	SettleWaitBudget time.Duration
}

func (o Options) withDefaults() Options {
	out := o
	if out.MinNotional.Sign() <= 0 {
		out.MinNotional = decimal.NewFromInt(5)
	}
	if out.MinCallbackRate.Sign() <= 0 {
		out.MinCallbackRate = decimal.RequireFromString("0.1")
	}
	if out.EntryPollInterval <= 0 {
		out.EntryPollInterval = 15 * time.Second
	}
	if out.EntryWaitBudget <= 0 {
		out.EntryWaitBudget = 300 * time.Second
	}
	if out.ExitPollInterval <= 0 {
		out.ExitPollInterval = 5 * time.Second
	}
	if out.SettleWaitBudget <= 0 {
		out.SettleWaitBudget = 30 * time.Second
	}
	return out
}

// Engine runs one trade lifecycle per Handle call. Instances are safe for
// concurrent use across instruments; the caller serializes signals for the
// same instrument.
type Engine struct {
	gw    exchange.Gateway
	rec   audit.Recorder
	jnl   Journal
	clock Clock
	opts  Options
}

func New(gw exchange.Gateway, rec audit.Recorder, jnl Journal, clock Clock, opts Options) *Engine {
	if clock == nil {
		clock = WallClock()
	}
	return &Engine{
		gw:    gw,
		rec:   rec,
		jnl:   jnl,
		clock: clock,
		opts:  opts.withDefaults(),
	}
}

// Handle runs the full lifecycle for one intent and returns when the trade
// reaches a terminal state or aborts. Blocking; run it on the per-symbol
// dispatch worker.
func (e *Engine) Handle(ctx context.Context, intent types.TradeIntent) error {
	if intent.IsExit() {
		return e.Flatten(ctx, intent)
	}

	rules, err := e.gw.InstrumentRules(ctx, intent.Symbol)
	if err != nil {
		return gatewayErr("instrument rules", err)
	}
	pos, err := e.gw.Position(ctx, intent.Symbol)
	if err != nil {
		return gatewayErr("position", err)
	}
	if !pos.Flat() {
		held := types.SideLong
		if pos.Short() {
			held = types.SideShort
		}
		if held == intent.Side {
			logger.Warnf("%s: %s position already open (size=%s), signal %s dropped",
				intent.Symbol, held, pos.Size(), intent.SignalID)
			return ErrPositionOpen
		}
		// Opposite signal: flatten first, and only proceed once the venue
		// confirms the old position is fully settled.
		logger.Infof("%s: flipping %s -> %s, closing existing position first",
			intent.Symbol, held, intent.Side)
		if err := e.flatten(ctx, rules, pos, intent, true); err != nil {
			return err
		}
	}

	entry, err := e.enter(ctx, rules, intent)
	if err != nil {
		return err
	}

	plan := BuildExitPlan(PlanInput{
		Side:            intent.Side,
		EntryPrice:      entry.FillPrice,
		Leverage:        intent.Leverage,
		TickSize:        rules.TickSize,
		TakeProfitPct:   intent.TakeProfitPct,
		StopLossPct:     intent.StopLossPct,
		TrailingPct:     intent.TrailingPct,
		MinCallbackRate: e.opts.MinCallbackRate,
	})
	if plan.Empty() {
		logger.Infof("%s: no protective orders requested, entry left unmanaged", intent.Symbol)
		return nil
	}
	return e.superviseExits(ctx, rules, intent, entry, plan)
}

// entryResult is the realized outcome of a completed entry stage.
type entryResult struct {
	Order     exchange.ManagedOrder
	FillPrice decimal.Decimal
	Quantity  decimal.Decimal
}

func newClientID() string {
	return "tw-" + uuid.NewString()[:18]
}

func (e *Engine) journal(ctx context.Context, evt journal.OrderEvent) {
	if e.jnl == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = e.clock.Now()
	}
	if err := e.jnl.Append(ctx, evt); err != nil {
		logger.Warnf("journal append failed: %v", err)
	}
}

func (e *Engine) audit(ctx context.Context, rec audit.TransactionRecord) {
	if e.rec == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = e.clock.Now()
	}
	if err := e.rec.Record(ctx, rec); err != nil {
		logger.Errorf("audit record failed (type=%s market=%s): %v", rec.Type, rec.Market, err)
	}
}

// fillPrice resolves the realized price of a filled order, preferring the
// average fill and falling back to the limit price.
func (e *Engine) fillPrice(ctx context.Context, order exchange.ManagedOrder) decimal.Decimal {
	if order.AvgFillPrice.Sign() > 0 {
		return order.AvgFillPrice
	}
	fresh, err := e.gw.GetOrder(ctx, order.Symbol, order.ID)
	if err == nil && fresh.AvgFillPrice.Sign() > 0 {
		return fresh.AvgFillPrice
	}
	return order.Price
}

// orderFees fetches the settled commission for an order; failures degrade
// to a zero fee on the audit record rather than aborting the trade.
func (e *Engine) orderFees(ctx context.Context, symbol string, orderID int64) exchange.Fee {
	fee, err := e.gw.OrderFees(ctx, symbol, orderID)
	if err != nil {
		logger.Warnf("%s: fee lookup for order %d failed: %v", symbol, orderID, err)
		return exchange.Fee{Amount: decimal.Zero}
	}
	return fee
}

func entrySide(side types.Side) exchange.OrderSide {
	if side == types.SideShort {
		return exchange.Sell
	}
	return exchange.Buy
}

func closeSide(side types.Side) exchange.OrderSide {
	if side == types.SideShort {
		return exchange.Buy
	}
	return exchange.Sell
}
