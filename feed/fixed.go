package feed

import (
	"context"
	"fmt"
	"sync"
)

// Fixed serves prices from an in-memory table. Used for offline runs and
// tests; Set/SetErr may be called concurrently with Price.
type Fixed struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
}

func NewFixed(prices map[string]float64) *Fixed {
	f := &Fixed{
		prices: make(map[string]float64, len(prices)),
		errs:   make(map[string]error),
	}
	for sym, p := range prices {
		f.prices[sym] = p
	}
	return f
}

func (f *Fixed) Set(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
	delete(f.errs, symbol)
}

// SetErr makes the next lookups for symbol fail, simulating a feed outage.
func (f *Fixed) SetErr(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[symbol] = err
}

func (f *Fixed) Price(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.errs[symbol]; ok {
		return 0, err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("fixed price %s: %w", symbol, ErrNoPrice)
	}
	return p, nil
}
