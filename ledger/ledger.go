// Package ledger is the sole authority over simulated cash, positions and
// trade history. Only the monitor loop mutates it; everything else reads
// value copies through Snapshot().
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/id"
)

// Rejection sentinels. Both are returned before any state is touched.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Trade is an immutable fill record. RealizedPnL is the delta this trade
// contributed to the account's realized P&L (always zero for buys).
type Trade struct {
	ID          string
	Time        time.Time
	Symbol      string
	Action      Action
	Quantity    int64
	Price       decimal.Decimal
	RealizedPnL decimal.Decimal
	Reason      string // entry, target, stop, manual
}

// TradeRecorder persists committed trades. The ledger keeps working if
// recording fails; the error is reported to the caller.
type TradeRecorder interface {
	RecordTrade(Trade) error
}

type Ledger struct {
	mu        sync.Mutex
	initial   decimal.Decimal
	cash      decimal.Decimal
	realized  decimal.Decimal
	positions map[string]*Position
	trades    []Trade
	recorder  TradeRecorder
}

func New(initialCapital decimal.Decimal) *Ledger {
	return &Ledger{
		initial:   initialCapital,
		cash:      initialCapital,
		positions: make(map[string]*Position),
	}
}

// SetRecorder attaches a trade recorder. Pass nil to detach.
func (l *Ledger) SetRecorder(r TradeRecorder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorder = r
}

// Buy debits qty*price from cash, folds the fill into the position's
// weighted-average cost basis and appends a BUY trade. The whole transition
// commits or nothing changes.
func (l *Ledger) Buy(symbol string, qty int64, price decimal.Decimal, reason string) (Trade, error) {
	if err := validateOrder(symbol, qty, price); err != nil {
		return Trade{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := price.Mul(decimal.NewFromInt(qty))
	if cost.GreaterThan(l.cash) {
		return Trade{}, fmt.Errorf("buy %d %s @ %s: %w (need %s, have %s)",
			qty, symbol, price, ErrInsufficientFunds, cost, l.cash)
	}

	t := Trade{
		ID:       id.New(),
		Time:     time.Now().UTC(),
		Symbol:   symbol,
		Action:   ActionBuy,
		Quantity: qty,
		Price:    price,
		Reason:   reason,
	}
	l.applyLocked(t)
	return t, l.recordLocked(t)
}

// Sell credits qty*price to cash, realizes (price-avg)*qty and appends a SELL
// trade. A sell exceeding the held quantity is rejected before any mutation.
func (l *Ledger) Sell(symbol string, qty int64, price decimal.Decimal, reason string) (Trade, error) {
	if err := validateOrder(symbol, qty, price); err != nil {
		return Trade{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok || pos.Quantity < qty {
		var held int64
		if ok {
			held = pos.Quantity
		}
		return Trade{}, fmt.Errorf("sell %d %s: %w (held %d)",
			qty, symbol, ErrInsufficientPosition, held)
	}

	t := Trade{
		ID:          id.New(),
		Time:        time.Now().UTC(),
		Symbol:      symbol,
		Action:      ActionSell,
		Quantity:    qty,
		Price:       price,
		RealizedPnL: price.Sub(pos.AvgPrice).Mul(decimal.NewFromInt(qty)),
		Reason:      reason,
	}
	l.applyLocked(t)
	return t, l.recordLocked(t)
}

// MarkPrice updates the last seen market price of a held symbol. It is a
// no-op for symbols without a position.
func (l *Ledger) MarkPrice(symbol string, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos, ok := l.positions[symbol]; ok {
		pos.LastPrice = price
	}
}

// Restore replays a persisted trade history in order, rebuilding cash and
// positions. The recorder is not invoked; the trades are already on disk.
func (l *Ledger) Restore(trades []Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, t := range trades {
		switch t.Action {
		case ActionBuy:
			cost := t.Price.Mul(decimal.NewFromInt(t.Quantity))
			if cost.GreaterThan(l.cash) {
				return fmt.Errorf("restore trade %s: %w", t.ID, ErrInsufficientFunds)
			}
		case ActionSell:
			pos, ok := l.positions[t.Symbol]
			if !ok || pos.Quantity < t.Quantity {
				return fmt.Errorf("restore trade %s: %w", t.ID, ErrInsufficientPosition)
			}
		default:
			return fmt.Errorf("restore trade %s: unknown action %q", t.ID, t.Action)
		}
		l.applyLocked(t)
	}
	return nil
}

// applyLocked commits a validated trade. Callers hold l.mu and have already
// checked funds (buy) or held quantity (sell).
func (l *Ledger) applyLocked(t Trade) {
	qty := decimal.NewFromInt(t.Quantity)

	switch t.Action {
	case ActionBuy:
		l.cash = l.cash.Sub(t.Price.Mul(qty))

		pos, ok := l.positions[t.Symbol]
		if !ok {
			pos = &Position{Symbol: t.Symbol}
			l.positions[t.Symbol] = pos
		}
		oldQty := decimal.NewFromInt(pos.Quantity)
		newQty := pos.Quantity + t.Quantity
		basis := pos.AvgPrice.Mul(oldQty).Add(t.Price.Mul(qty))
		pos.AvgPrice = basis.DivRound(decimal.NewFromInt(newQty), 8)
		pos.Quantity = newQty
		pos.LastPrice = t.Price

	case ActionSell:
		pos := l.positions[t.Symbol]
		l.cash = l.cash.Add(t.Price.Mul(qty))
		l.realized = l.realized.Add(t.Price.Sub(pos.AvgPrice).Mul(qty))
		pos.Quantity -= t.Quantity
		pos.LastPrice = t.Price
		if pos.Quantity == 0 {
			delete(l.positions, t.Symbol)
		}
	}

	l.trades = append(l.trades, t)
}

func (l *Ledger) recordLocked(t Trade) error {
	if l.recorder == nil {
		return nil
	}
	if err := l.recorder.RecordTrade(t); err != nil {
		return fmt.Errorf("record trade %s: %w", t.ID, err)
	}
	return nil
}

// Snapshot returns a deep value copy of the account state. Positions are
// sorted by symbol so repeated reads are stable.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		Time:           time.Now().UTC(),
		InitialCapital: l.initial,
		Cash:           l.cash,
		RealizedPnL:    l.realized,
		Positions:      make([]Position, 0, len(l.positions)),
	}
	for _, pos := range l.positions {
		s.Positions = append(s.Positions, *pos)
	}
	sort.Slice(s.Positions, func(i, j int) bool {
		return s.Positions[i].Symbol < s.Positions[j].Symbol
	})
	return s
}

// Position returns a value copy of the position for symbol, if held.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Trades returns a copy of the trade history in append order.
func (l *Ledger) Trades() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func validateOrder(symbol string, qty int64, price decimal.Decimal) error {
	if symbol == "" {
		return errors.New("symbol is required")
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	if !price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", price)
	}
	return nil
}
