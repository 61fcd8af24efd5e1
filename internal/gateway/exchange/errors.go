package exchange

import "errors"

// ErrUnknownOrder marks a cancel or lookup against an order the venue no
// longer tracks, typically because it already filled. Callers racing the
// venue's own processing treat it as a no-op.
var ErrUnknownOrder = errors.New("exchange: unknown order")

// IsUnknownOrder reports whether err wraps ErrUnknownOrder.
func IsUnknownOrder(err error) bool {
	return errors.Is(err, ErrUnknownOrder)
}
