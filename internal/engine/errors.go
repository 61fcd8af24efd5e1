package engine

import (
	"errors"
	"fmt"

	"tradewire/internal/gateway/exchange"
)

// Validation failures are raised before any order reaches the venue and are
// never retried.
var (
	// ErrInsufficientNotional means quantity x price came out below the
	// venue's minimum order value.
	ErrInsufficientNotional = errors.New("engine: order notional below minimum")

	// ErrPositionOpen means a same-side position already exists for the
	// instrument; at most one entry may be outstanding.
	ErrPositionOpen = errors.New("engine: position already open")
)

// GatewayError wraps a venue call failure. The stage that hit it aborts
// rather than retrying, bounding exposure to a failing dependency.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func gatewayErr(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}

// AbortError reports an entry order that reached a terminal state other
// than filled before the engine could act on it.
type AbortError struct {
	OrderID int64
	Status  exchange.OrderStatus
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("entry order %d ended %s before fill", e.OrderID, e.Status)
}
