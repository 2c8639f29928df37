// Package feed provides current prices for symbols. A failure is always
// per-symbol and transient from the caller's point of view: the monitor
// logs it, skips the symbol for the tick and retries next tick.
package feed

import (
	"context"
	"errors"
)

// ErrNoPrice means the provider had no quote for the symbol.
var ErrNoPrice = errors.New("no price available")

// Feed returns the current price for a symbol. Implementations must be
// timeout-bounded; a blocking call here must never stall a whole tick.
type Feed interface {
	Price(ctx context.Context, symbol string) (float64, error)
}
