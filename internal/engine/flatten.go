package engine

import (
	"context"
	"fmt"

	"tradewire/internal/audit"
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/logger"
	"tradewire/internal/pkg/quant"
	"tradewire/internal/pkg/symbol"
	"tradewire/internal/store/journal"
	"tradewire/internal/types"

	"github.com/shopspring/decimal"
)

// protectiveTypes are the order types the flattener retires before closing;
// plain limit orders on the instrument are left alone.
var protectiveTypes = map[exchange.OrderType]bool{
	exchange.TakeProfitMarket:   true,
	exchange.StopMarket:         true,
	exchange.TrailingStopMarket: true,
}

// Flatten closes whatever position is open on the intent's instrument with
// a reduce-only market order. A flat instrument is a no-op.
func (e *Engine) Flatten(ctx context.Context, intent types.TradeIntent) error {
	rules, err := e.gw.InstrumentRules(ctx, intent.Symbol)
	if err != nil {
		return gatewayErr("instrument rules", err)
	}
	pos, err := e.gw.Position(ctx, intent.Symbol)
	if err != nil {
		return gatewayErr("position", err)
	}
	return e.flatten(ctx, rules, pos, intent, false)
}

// flatten retires the protective orders and closes pos at market. When
// awaitSettle is set (a flip in progress) it additionally blocks until the
// venue reports the position at exactly zero.
func (e *Engine) flatten(ctx context.Context, rules exchange.InstrumentRules,
	pos exchange.Position, intent types.TradeIntent, awaitSettle bool) error {

	if pos.Flat() {
		logger.Infof("%s: no position to close", intent.Symbol)
		return nil
	}

	size := quant.QuantizeDown(pos.Size(), rules.StepSize)
	if size.Sign() <= 0 {
		logger.Warnf("%s: position %s below step size %s, nothing closable",
			intent.Symbol, pos.Size(), rules.StepSize)
		return nil
	}
	ref := intent.Price
	if ref.Sign() <= 0 {
		ref = pos.EntryPrice
	}
	floor := e.opts.MinNotional
	if rules.MinNotional.GreaterThan(floor) {
		floor = rules.MinNotional
	}
	if ref.Sign() > 0 && size.Mul(ref).LessThan(floor) {
		logger.Warnf("%s: close notional %s below floor %s", intent.Symbol, size.Mul(ref), floor)
		return fmt.Errorf("close %s x %s: %w", size, ref, ErrInsufficientNotional)
	}

	if err := e.cancelProtective(ctx, intent.Symbol); err != nil {
		return err
	}

	side := exchange.Sell
	if pos.Short() {
		side = exchange.Buy
	}
	order, err := e.gw.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:            intent.Symbol,
		Side:              side,
		Type:              exchange.Market,
		Role:              exchange.RoleFlatten,
		PricePrecision:    rules.PricePrecision,
		QuantityPrecision: rules.QuantityPrecision,
		Quantity:          size,
		ReduceOnly:        true,
		ClientID:          newClientID(),
	})
	if err != nil {
		return gatewayErr("place close order", err)
	}
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: order.ID, ClientID: order.ClientID,
		Role: string(exchange.RoleFlatten), Event: journal.EventSubmitted,
		Detail: map[string]any{"qty": size.String(), "side": string(side)},
	})

	exitPrice := e.fillPrice(ctx, order)
	e.journal(ctx, journal.OrderEvent{
		Symbol: intent.Symbol, OrderID: order.ID, Role: string(exchange.RoleFlatten),
		Event: journal.EventFilled, Detail: map[string]any{"avg_price": exitPrice.String()},
	})
	logger.Infof("%s: position closed at %s (qty=%s)", intent.Symbol, exitPrice, size)

	e.recordClose(ctx, intent, pos, order.ID, size, exitPrice)

	if awaitSettle {
		return e.awaitFlat(ctx, intent.Symbol)
	}
	return nil
}

// cancelProtective retires every open protective order on the instrument so
// none of them fires against the position we are about to remove.
func (e *Engine) cancelProtective(ctx context.Context, sym string) error {
	open, err := e.gw.OpenOrders(ctx, sym)
	if err != nil {
		return gatewayErr("list open orders", err)
	}
	for _, o := range open {
		if !protectiveTypes[o.Type] {
			continue
		}
		if err := e.gw.CancelOrder(ctx, sym, o.ID); err != nil {
			if exchange.IsUnknownOrder(err) {
				continue
			}
			logger.Errorf("%s: canceling order %d before close failed: %v", sym, o.ID, err)
			continue
		}
		e.journal(ctx, journal.OrderEvent{
			Symbol: sym, OrderID: o.ID, Role: string(o.Role), Event: journal.EventCanceled,
			Detail: map[string]any{"reason": "position closing"},
		})
		logger.Infof("%s: canceled protective order %d (%s)", sym, o.ID, o.Type)
	}
	return nil
}

// recordClose writes the audit fact for a manual or flip close. When the
// entry price is known the record is classified profit or loss; otherwise a
// generic exit is recorded.
func (e *Engine) recordClose(ctx context.Context, intent types.TradeIntent,
	pos exchange.Position, orderID int64, size, exitPrice decimal.Decimal) {

	recType := audit.RecordExit
	detail := map[string]any{
		"order_id":   orderID,
		"exit_price": exitPrice.String(),
	}
	if pos.EntryPrice.Sign() > 0 {
		held := types.SideLong
		if pos.Short() {
			held = types.SideShort
		}
		pnl := realizedPnL(held, pos.EntryPrice, exitPrice, size)
		if pnl.Sign() < 0 {
			recType = audit.RecordLoss
		} else {
			recType = audit.RecordProfit
		}
		detail["entry_price"] = pos.EntryPrice.String()
		detail["pnl"] = pnl.String()
	}
	fee := e.orderFees(ctx, intent.Symbol, orderID)
	sym := symbol.Parse(intent.Symbol)
	e.audit(ctx, audit.TransactionRecord{
		Type:     recType,
		QtyIn:    size.Mul(exitPrice),
		AssetIn:  sym.Quote,
		QtyOut:   size,
		AssetOut: sym.Base,
		Fee:      fee.Amount,
		FeeAsset: fee.Asset,
		Market:   intent.Symbol,
		Note:     fmt.Sprintf("order %d (flatten)", orderID),
		Detail:   detail,
	})
}

// awaitFlat polls the position until the venue reports exactly zero, bounded
// by the settle budget. A flip must not size its new entry off a stale,
// partially settled position.
func (e *Engine) awaitFlat(ctx context.Context, sym string) error {
	var elapsed int64
	interval := e.opts.ExitPollInterval
	for {
		pos, err := e.gw.Position(ctx, sym)
		if err != nil {
			return gatewayErr("await settle", err)
		}
		if pos.Flat() {
			return nil
		}
		if elapsed >= int64(e.opts.SettleWaitBudget) {
			return fmt.Errorf("%s: position still %s after settle budget", sym, pos.Size())
		}
		if err := e.clock.Sleep(ctx, interval); err != nil {
			return err
		}
		elapsed += int64(interval)
	}
}
