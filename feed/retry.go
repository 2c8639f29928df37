package feed

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
)

// Retry wraps a feed with a small number of jittered retries so one flaky
// response does not burn a whole monitor tick for that symbol. Exhausted
// retries surface the last error; the caller treats it as transient.
type Retry struct {
	next     Feed
	attempts int
	min, max time.Duration
}

func WithRetry(next Feed, attempts int) *Retry {
	if attempts < 1 {
		attempts = 1
	}
	return &Retry{
		next:     next,
		attempts: attempts,
		min:      200 * time.Millisecond,
		max:      2 * time.Second,
	}
}

func (r *Retry) Price(ctx context.Context, symbol string) (float64, error) {
	b := &backoff.Backoff{Min: r.min, Max: r.max, Factor: 2, Jitter: true}

	var lastErr error
	for i := 0; i < r.attempts; i++ {
		p, err := r.next.Price(ctx, symbol)
		if err == nil {
			return p, nil
		}
		lastErr = err

		if i == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return 0, lastErr
}
