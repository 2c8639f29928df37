package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
)

// Binance fetches spot last prices from the Binance REST API.
type Binance struct {
	client  *binance.Client
	timeout time.Duration
}

// NewBinance builds a spot price feed. Public price endpoints work with
// empty credentials. Every lookup is bounded by timeout.
func NewBinance(apiKey, secretKey string, timeout time.Duration) *Binance {
	return &Binance{
		client:  binance.NewClient(apiKey, secretKey),
		timeout: timeout,
	}
}

func (b *Binance) Price(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance price %s: %w", symbol, ErrNoPrice)
	}

	p, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: parse %q: %w", symbol, prices[0].Price, err)
	}
	return p, nil
}
