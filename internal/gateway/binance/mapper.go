package binance

import (
	"tradewire/internal/gateway/exchange"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

func mapStatus(status futures.OrderStatusType) exchange.OrderStatus {
	switch status {
	case futures.OrderStatusTypeFilled:
		return exchange.StatusFilled
	case futures.OrderStatusTypeCanceled:
		return exchange.StatusCanceled
	case futures.OrderStatusTypeRejected:
		return exchange.StatusRejected
	case futures.OrderStatusTypeExpired:
		return exchange.StatusExpired
	default:
		// NEW and PARTIALLY_FILLED both still belong to the venue.
		return exchange.StatusPending
	}
}

func mapOrder(o *futures.Order) exchange.ManagedOrder {
	out := exchange.ManagedOrder{
		ID:         o.OrderID,
		ClientID:   o.ClientOrderID,
		Symbol:     o.Symbol,
		Side:       exchange.OrderSide(o.Side),
		Type:       exchange.OrderType(o.Type),
		Status:     mapStatus(o.Status),
		ReduceOnly: o.ReduceOnly,
	}
	out.Quantity = parseDecimal(o.OrigQuantity)
	out.Price = parseDecimal(o.Price)
	out.TriggerPrice = parseDecimal(o.StopPrice)
	out.AvgFillPrice = parseDecimal(o.AvgPrice)
	return out
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
