package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the synchronous venue interface. Implementations are expected
// to be safe for concurrent use across instruments and idempotent from the
// engine's point of view: the venue, not the gateway, is the source of
// truth for order and position state.
type Gateway interface {
	// InstrumentRules fetches tick size, step size, precisions and the
	// minimum notional for one symbol.
	InstrumentRules(ctx context.Context, symbol string) (InstrumentRules, error)

	// Position returns the live signed position for symbol.
	Position(ctx context.Context, symbol string) (Position, error)

	// AvailableMargin returns the account's free margin in the quote
	// currency.
	AvailableMargin(ctx context.Context) (decimal.Decimal, error)

	// SetLeverage applies the requested leverage before sizing.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceOrder submits one order and returns the venue's view of it.
	PlaceOrder(ctx context.Context, req OrderRequest) (ManagedOrder, error)

	// CancelOrder cancels by venue order id. Canceling an order that has
	// already reached a terminal state returns ErrUnknownOrder.
	CancelOrder(ctx context.Context, symbol string, orderID int64) error

	// GetOrder re-reads one order's status.
	GetOrder(ctx context.Context, symbol string, orderID int64) (ManagedOrder, error)

	// OpenOrders lists the non-terminal orders for symbol.
	OpenOrders(ctx context.Context, symbol string) ([]ManagedOrder, error)

	// OrderFees sums the commissions settled for one order.
	OrderFees(ctx context.Context, symbol string, orderID int64) (Fee, error)
}
