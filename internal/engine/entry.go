package engine

import (
	"context"
	"fmt"
	"time"

	"tradewire/internal/audit"
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/logger"
	"tradewire/internal/pkg/quant"
	"tradewire/internal/pkg/symbol"
	"tradewire/internal/store/journal"
	"tradewire/internal/types"

	"github.com/shopspring/decimal"
)

// enter sizes and submits the primary order, then supervises it until it
// fills, aborts, or falls back to guaranteed market execution.
func (e *Engine) enter(ctx context.Context, rules exchange.InstrumentRules, intent types.TradeIntent) (entryResult, error) {
	price := quant.QuantizeDown(intent.Price, rules.TickSize)
	margin, err := e.gw.AvailableMargin(ctx)
	if err != nil {
		return entryResult{}, gatewayErr("available margin", err)
	}
	lev := intent.Leverage
	if !intent.Leveraged() {
		lev = decOne
	}
	qty := quant.QuantizeDown(margin.Mul(lev).Mul(intent.EquityFraction).Div(price), rules.StepSize)
	notional := qty.Mul(price)
	floor := e.opts.MinNotional
	if rules.MinNotional.GreaterThan(floor) {
		floor = rules.MinNotional
	}
	// Validation runs before any state-changing venue call.
	if notional.LessThan(floor) {
		return entryResult{}, fmt.Errorf("%w: %s < %s for %s",
			ErrInsufficientNotional, notional, floor, intent.Symbol)
	}

	if intent.Leveraged() {
		if err := e.gw.SetLeverage(ctx, intent.Symbol, int(lev.IntPart())); err != nil {
			return entryResult{}, gatewayErr("set leverage", err)
		}
	}

	order, err := e.gw.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:            intent.Symbol,
		Side:              entrySide(intent.Side),
		Type:              exchange.Limit,
		Role:              exchange.RoleEntry,
		PricePrecision:    rules.PricePrecision,
		QuantityPrecision: rules.QuantityPrecision,
		Quantity:          qty,
		Price:             price,
		TimeInForce:       exchange.GTC,
		ClientID:          newClientID(),
	})
	if err != nil {
		return entryResult{}, gatewayErr("place entry order", err)
	}
	logger.Infof("%s: entry %s submitted, order %d qty=%s price=%s signal=%s",
		intent.Symbol, intent.Side, order.ID, qty, price, intent.SignalID)
	e.journal(ctx, journal.OrderEvent{
		Symbol:   intent.Symbol,
		OrderID:  order.ID,
		ClientID: order.ClientID,
		Role:     string(exchange.RoleEntry),
		Event:    journal.EventSubmitted,
		Detail:   map[string]any{"qty": qty.String(), "price": price.String(), "signal": intent.SignalID},
	})
	return e.waitEntry(ctx, rules, intent, order, qty, price)
}

// waitEntry polls the submitted limit order with bounded patience and
// falls back to a market order when the budget runs out.
func (e *Engine) waitEntry(ctx context.Context, rules exchange.InstrumentRules, intent types.TradeIntent,
	order exchange.ManagedOrder, qty, price decimal.Decimal) (entryResult, error) {

	var elapsed time.Duration
	for {
		cur, err := e.gw.GetOrder(ctx, intent.Symbol, order.ID)
		if err != nil {
			e.journalAbort(ctx, intent.Symbol, order.ID, err)
			return entryResult{}, gatewayErr("poll entry order", err)
		}
		switch cur.Status {
		case exchange.StatusFilled:
			return e.settleEntry(ctx, intent, cur, qty, false)
		case exchange.StatusCanceled, exchange.StatusRejected, exchange.StatusExpired:
			logger.Infof("%s: entry order %d ended %s, no protective orders placed",
				intent.Symbol, order.ID, cur.Status)
			e.journal(ctx, journal.OrderEvent{
				Symbol: intent.Symbol, OrderID: order.ID, Role: string(exchange.RoleEntry),
				Event: journal.EventAborted, Detail: map[string]any{"status": string(cur.Status)},
			})
			return entryResult{}, &AbortError{OrderID: order.ID, Status: cur.Status}
		}
		if elapsed >= e.opts.EntryWaitBudget {
			break
		}
		if err := e.clock.Sleep(ctx, e.opts.EntryPollInterval); err != nil {
			return entryResult{}, err
		}
		elapsed += e.opts.EntryPollInterval
	}

	// Patience exhausted: guaranteed execution path.
	logger.Warnf("%s: entry order %d unfilled after %s, falling back to market",
		intent.Symbol, order.ID, e.opts.EntryWaitBudget)
	if err := e.gw.CancelOrder(ctx, intent.Symbol, order.ID); err != nil {
		if exchange.IsUnknownOrder(err) {
			// The limit order may have filled while we were canceling.
			cur, err2 := e.gw.GetOrder(ctx, intent.Symbol, order.ID)
			if err2 == nil && cur.Status == exchange.StatusFilled {
				return e.settleEntry(ctx, intent, cur, qty, false)
			}
		}
		e.journalAbort(ctx, intent.Symbol, order.ID, err)
		return entryResult{}, gatewayErr("cancel stale entry", err)
	}
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: order.ID, Role: string(exchange.RoleEntry),
		Event: journal.EventCanceled, Detail: map[string]any{"reason": "entry wait budget exhausted"},
	})

	market, err := e.gw.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:            intent.Symbol,
		Side:              entrySide(intent.Side),
		Type:              exchange.Market,
		Role:              exchange.RoleEntry,
		PricePrecision:    rules.PricePrecision,
		QuantityPrecision: rules.QuantityPrecision,
		Quantity:          qty,
		ClientID:          newClientID(),
	})
	if err != nil {
		return entryResult{}, gatewayErr("place fallback market order", err)
	}
	logger.Infof("%s: fallback market order %d placed for qty=%s", intent.Symbol, market.ID, qty)
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: market.ID, ClientID: market.ClientID,
		Role: string(exchange.RoleEntry), Event: journal.EventFallback,
		Detail: map[string]any{"replaces": order.ID},
	})
	return e.settleEntry(ctx, intent, market, qty, true)
}

// settleEntry captures the realized fill, records the audit fact and hands
// the result to the exit stages. The fallback fill is authoritative when it
// happened.
func (e *Engine) settleEntry(ctx context.Context, intent types.TradeIntent,
	order exchange.ManagedOrder, qty decimal.Decimal, fallback bool) (entryResult, error) {

	fill := e.fillPrice(ctx, order)
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: order.ID, Role: string(exchange.RoleEntry),
		Event: journal.EventFilled, Detail: map[string]any{"avg_price": fill.String(), "fallback": fallback},
	})
	logger.Infof("%s: entry order %d filled at %s", intent.Symbol, order.ID, fill)

	fee := e.orderFees(ctx, intent.Symbol, order.ID)
	sym := symbol.Parse(intent.Symbol)
	e.audit(ctx, audit.TransactionRecord{
		Type:     audit.RecordEnter,
		QtyIn:    qty,
		AssetIn:  sym.Base,
		QtyOut:   qty.Mul(fill),
		AssetOut: sym.Quote,
		Fee:      fee.Amount,
		FeeAsset: fee.Asset,
		Market:   intent.Symbol,
		Note:     fmt.Sprintf("order %d (%s)", order.ID, intent.SignalID),
		Detail: map[string]any{
			"order_id": order.ID,
			"fallback": fallback,
			"leverage": intent.Leverage.String(),
		},
	})
	return entryResult{Order: order, FillPrice: fill, Quantity: qty}, nil
}

func (e *Engine) journalAbort(ctx context.Context, sym string, orderID int64, cause error) {
	e.journal(ctx, journal.OrderEvent{
		Symbol: sym, OrderID: orderID, Role: string(exchange.RoleEntry),
		Event: journal.EventAborted, Detail: map[string]any{"error": cause.Error()},
	})
}
