package binance

import (
	"testing"

	"tradewire/internal/gateway/exchange"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in   futures.OrderStatusType
		want exchange.OrderStatus
	}{
		{futures.OrderStatusTypeNew, exchange.StatusPending},
		{futures.OrderStatusTypePartiallyFilled, exchange.StatusPending},
		{futures.OrderStatusTypeFilled, exchange.StatusFilled},
		{futures.OrderStatusTypeCanceled, exchange.StatusCanceled},
		{futures.OrderStatusTypeRejected, exchange.StatusRejected},
		{futures.OrderStatusTypeExpired, exchange.StatusExpired},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStatus(tt.in), string(tt.in))
	}
}

func TestMapOrder(t *testing.T) {
	o := &futures.Order{
		OrderID:       42,
		ClientOrderID: "tw-abc",
		Symbol:        "BTCUSDT",
		Side:          futures.SideTypeBuy,
		Type:          futures.OrderTypeLimit,
		Status:        futures.OrderStatusTypeFilled,
		OrigQuantity:  "0.100",
		Price:         "50000.00",
		StopPrice:     "0",
		AvgPrice:      "50000.50",
		ReduceOnly:    false,
	}
	got := mapOrder(o)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "tw-abc", got.ClientID)
	assert.Equal(t, exchange.Buy, got.Side)
	assert.Equal(t, exchange.Limit, got.Type)
	assert.Equal(t, exchange.StatusFilled, got.Status)
	assert.Equal(t, "0.1", got.Quantity.String())
	assert.Equal(t, "50000.5", got.AvgFillPrice.String())
	assert.True(t, got.TriggerPrice.IsZero())
}

func TestParseDecimalBadInput(t *testing.T) {
	assert.True(t, parseDecimal("").IsZero())
	assert.True(t, parseDecimal("not-a-number").IsZero())
	assert.Equal(t, "1.5", parseDecimal("1.50").String())
}
