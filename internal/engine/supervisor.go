package engine

import (
	"context"
	"fmt"

	"tradewire/internal/audit"
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/logger"
	"tradewire/internal/pkg/symbol"
	"tradewire/internal/store/journal"
	"tradewire/internal/types"

	"github.com/shopspring/decimal"
)

// superviseExits places the protective orders and polls them together with
// the live position until exactly one resolves the trade, then retires the
// remaining siblings.
func (e *Engine) superviseExits(ctx context.Context, rules exchange.InstrumentRules,
	intent types.TradeIntent, entry entryResult, plan ExitPlan) error {

	side := closeSide(intent.Side)
	tracked := make([]exchange.ManagedOrder, 0, len(plan.Legs))
	for _, leg := range plan.Legs {
		if leg.Clamped {
			logger.Warnf("%s: trailing callback below venue minimum, clamped to %s%%",
				intent.Symbol, leg.CallbackRate)
		}
		order, err := e.gw.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:            intent.Symbol,
			Side:              side,
			Type:              leg.Type,
			Role:              leg.Role,
			PricePrecision:    rules.PricePrecision,
			QuantityPrecision: rules.QuantityPrecision,
			Quantity:          entry.Quantity,
			TriggerPrice:      leg.TriggerPrice,
			CallbackRate:      leg.CallbackRate,
			ReduceOnly:        true,
			ClientID:          newClientID(),
		})
		if err != nil {
			// Siblings already placed keep protecting the position; the
			// caller is told supervision never started.
			logger.Errorf("%s: placing %s failed: %v", intent.Symbol, leg.Role, err)
			return gatewayErr(fmt.Sprintf("place %s", leg.Role), err)
		}
		detail := map[string]any{"qty": entry.Quantity.String()}
		if leg.TriggerPrice.Sign() > 0 {
			detail["trigger"] = leg.TriggerPrice.String()
		}
		if leg.CallbackRate.Sign() > 0 {
			detail["callback_rate"] = leg.CallbackRate.String()
			detail["clamped"] = leg.Clamped
		}
		e.journal(ctx, journal.OrderEvent{
			Symbol: intent.Symbol, OrderID: order.ID, ClientID: order.ClientID,
			Role: string(leg.Role), Event: journal.EventSubmitted, Detail: detail,
		})
		if leg.Clamped {
			e.journal(ctx, journal.OrderEvent{
				Symbol: intent.Symbol, OrderID: order.ID, Role: string(leg.Role),
				Event: journal.EventClamped, Detail: map[string]any{"callback_rate": leg.CallbackRate.String()},
			})
		}
		logger.Infof("%s: %s order %d placed (trigger=%s callback=%s)",
			intent.Symbol, leg.Role, order.ID, leg.TriggerPrice, leg.CallbackRate)
		tracked = append(tracked, order)
	}

	for {
		pos, err := e.gw.Position(ctx, intent.Symbol)
		if err != nil {
			logger.Errorf("%s: exit supervision aborted, position read failed: %v", intent.Symbol, err)
			return gatewayErr("supervise position", err)
		}
		if pos.Flat() {
			// Something closed the position; find which protective order
			// did it, if any.
			resolver, found, err := e.findFilled(ctx, intent.Symbol, tracked)
			if err != nil {
				return gatewayErr("identify resolving order", err)
			}
			e.cancelSiblings(ctx, intent.Symbol, tracked, resolver.ID)
			if !found {
				logger.Warnf("%s: position flat but no tracked order filled; closed externally", intent.Symbol)
				e.journal(ctx, journal.OrderEvent{
					Symbol: intent.Symbol, Role: "supervisor", Event: journal.EventAborted,
					Detail: map[string]any{"reason": "position closed externally"},
				})
				return nil
			}
			e.settleExit(ctx, intent, entry, resolver)
			return nil
		}
		resolver, found, err := e.findFilled(ctx, intent.Symbol, tracked)
		if err != nil {
			return gatewayErr("poll protective orders", err)
		}
		if found {
			// First Filled observed wins; the venue may still be settling
			// the position when we see it.
			e.cancelSiblings(ctx, intent.Symbol, tracked, resolver.ID)
			e.settleExit(ctx, intent, entry, resolver)
			return nil
		}
		if err := e.clock.Sleep(ctx, e.opts.ExitPollInterval); err != nil {
			return err
		}
	}
}

// findFilled re-reads each tracked order and returns the first one in
// Filled state. A gateway failure aborts the scan; supervision never
// retries past a single failure.
func (e *Engine) findFilled(ctx context.Context, sym string, tracked []exchange.ManagedOrder) (exchange.ManagedOrder, bool, error) {
	for _, o := range tracked {
		cur, err := e.gw.GetOrder(ctx, sym, o.ID)
		if err != nil {
			if exchange.IsUnknownOrder(err) {
				continue
			}
			return exchange.ManagedOrder{}, false, err
		}
		if cur.Status == exchange.StatusFilled {
			cur.Role = o.Role
			return cur, true, nil
		}
	}
	return exchange.ManagedOrder{}, false, nil
}

// cancelSiblings retires every tracked order except the resolver. Cancels
// racing the venue's own fill processing may hit orders that are already
// gone; that is expected and swallowed.
func (e *Engine) cancelSiblings(ctx context.Context, sym string, tracked []exchange.ManagedOrder, resolverID int64) {
	for _, o := range tracked {
		if o.ID == resolverID {
			continue
		}
		if err := e.gw.CancelOrder(ctx, sym, o.ID); err != nil {
			if exchange.IsUnknownOrder(err) {
				logger.Debugf("%s: sibling %d already terminal on cancel", sym, o.ID)
				continue
			}
			logger.Errorf("%s: canceling sibling %d failed: %v", sym, o.ID, err)
			continue
		}
		e.journal(ctx, journal.OrderEvent{
			Symbol: sym, OrderID: o.ID, Role: string(o.Role), Event: journal.EventCanceled,
			Detail: map[string]any{"reason": "sibling resolved position"},
		})
		logger.Infof("%s: canceled %s order %d", sym, o.Role, o.ID)
	}
}

// settleExit emits the single audit fact for the order that closed the
// trade, classifying realized P&L as profit or loss.
func (e *Engine) settleExit(ctx context.Context, intent types.TradeIntent,
	entry entryResult, resolver exchange.ManagedOrder) {

	exitPrice := e.fillPrice(ctx, resolver)
	pnl := realizedPnL(intent.Side, entry.FillPrice, exitPrice, entry.Quantity)
	recType := audit.RecordProfit
	if pnl.Sign() < 0 {
		recType = audit.RecordLoss
	}
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: resolver.ID, Role: string(resolver.Role),
		Event: journal.EventFilled,
		Detail: map[string]any{
			"avg_price": exitPrice.String(),
			"pnl":       pnl.String(),
		},
	})
	logger.Infof("%s: position closed by %s order %d at %s, pnl=%s",
		intent.Symbol, resolver.Role, resolver.ID, exitPrice, pnl)

	fee := e.orderFees(ctx, intent.Symbol, resolver.ID)
	sym := symbol.Parse(intent.Symbol)
	e.audit(ctx, audit.TransactionRecord{
		Type:     recType,
		QtyIn:    entry.Quantity.Mul(exitPrice),
		AssetIn:  sym.Quote,
		QtyOut:   entry.Quantity,
		AssetOut: sym.Base,
		Fee:      fee.Amount,
		FeeAsset: fee.Asset,
		Market:   intent.Symbol,
		Note:     fmt.Sprintf("order %d (%s)", resolver.ID, resolver.Role),
		Detail: map[string]any{
			"order_id":    resolver.ID,
			"role":        string(resolver.Role),
			"entry_price": entry.FillPrice.String(),
			"exit_price":  exitPrice.String(),
			"pnl":         pnl.String(),
		},
	})
}

// realizedPnL is (exit - entry) x qty, sign-adjusted for side.
func realizedPnL(side types.Side, entry, exit, qty decimal.Decimal) decimal.Decimal {
	diff := exit.Sub(entry)
	if side == types.SideShort {
		diff = diff.Neg()
	}
	return diff.Mul(qty)
}
