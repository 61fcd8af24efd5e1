// Package exchange defines the venue-facing contract the trade engine is
// written against. The engine only ever sees these types; the concrete
// Binance futures client lives in gateway/binance.
package exchange

import "github.com/shopspring/decimal"

// OrderSide is the venue order direction.
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType covers every order kind the engine submits.
type OrderType string

const (
	Limit              OrderType = "LIMIT"
	Market             OrderType = "MARKET"
	TakeProfitMarket   OrderType = "TAKE_PROFIT_MARKET"
	StopMarket         OrderType = "STOP_MARKET"
	TrailingStopMarket OrderType = "TRAILING_STOP_MARKET"
)

// OrderStatus is the engine's view of an order's life. Partially filled
// orders stay Pending until the venue reports a terminal state.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
	StatusRejected OrderStatus = "REJECTED"
	StatusExpired  OrderStatus = "EXPIRED"
)

// Terminal reports whether the status can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected || s == StatusExpired
}

// OrderRole records why the engine placed an order.
type OrderRole string

const (
	RoleEntry        OrderRole = "entry"
	RoleTakeProfit   OrderRole = "take_profit"
	RoleStopLoss     OrderRole = "stop_loss"
	RoleTrailingStop OrderRole = "trailing_stop"
	RoleFlatten      OrderRole = "flatten"
)

// TimeInForce for limit orders.
type TimeInForce string

const GTC TimeInForce = "GTC"

// InstrumentRules are the per-instrument constants pulled from the venue.
// They are fetched fresh for every trade; nothing caches them across
// invocations.
type InstrumentRules struct {
	Symbol            string
	TickSize          decimal.Decimal
	StepSize          decimal.Decimal
	PricePrecision    int32
	QuantityPrecision int32
	MinNotional       decimal.Decimal
}

// OrderRequest describes one order submission. Quantity and prices must
// already be quantized; the precisions say how many fractional digits the
// wire encoding carries.
type OrderRequest struct {
	Symbol            string
	Side              OrderSide
	Type              OrderType
	Role              OrderRole
	PricePrecision    int32
	QuantityPrecision int32

	Quantity     decimal.Decimal
	Price        decimal.Decimal // limit price, zero for market-style orders
	TriggerPrice decimal.Decimal // stop/take-profit trigger
	CallbackRate decimal.Decimal // trailing retracement, percent units
	ReduceOnly   bool
	TimeInForce  TimeInForce
	ClientID     string
}

// ManagedOrder is one order the engine owns. Exactly one controller holds a
// ManagedOrder until it reaches a terminal status.
type ManagedOrder struct {
	ID           int64
	ClientID     string
	Symbol       string
	Role         OrderRole
	Side         OrderSide
	Type         OrderType
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	TriggerPrice decimal.Decimal
	CallbackRate decimal.Decimal
	Status       OrderStatus
	AvgFillPrice decimal.Decimal
	ReduceOnly   bool
}

// Position is a read-only snapshot of the venue's position. Quantity is
// signed: positive long, negative short, zero flat.
type Position struct {
	Symbol     string
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
}

// Flat reports whether the position size is exactly zero.
func (p Position) Flat() bool { return p.Quantity.IsZero() }

// Short reports whether the position is on the short side.
func (p Position) Short() bool { return p.Quantity.Sign() < 0 }

// Size returns the absolute position quantity.
func (p Position) Size() decimal.Decimal { return p.Quantity.Abs() }

// Fee is the settled commission for one order.
type Fee struct {
	Amount decimal.Decimal
	Asset  string
}
