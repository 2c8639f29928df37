// Package plan defines the read-only contract with the trading-plan store.
// Plans are authored elsewhere; the monitor only consumes them.
package plan

import (
	"context"
	"fmt"
	"strings"
)

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Plan is one stored trade thesis: an entry level, profit targets in
// ascending order and a protective stop for a single symbol.
type Plan struct {
	ID       int64
	Symbol   string
	Name     string
	BuyPrice float64
	Targets  []float64
	StopLoss float64
	Status   Status
	Starred  bool
}

// Fingerprint identifies the plan's price levels. The monitor resets a
// plan's trigger state when its fingerprint changes, so editing a plan
// re-arms its thresholds.
func (p Plan) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%.8f|%.8f", p.Symbol, p.BuyPrice, p.StopLoss)
	for _, t := range p.Targets {
		fmt.Fprintf(&b, "|%.8f", t)
	}
	return b.String()
}

// Source yields the current set of trackable plans. Implementations return
// the latest version per symbol; the monitor skips paused ones.
type Source interface {
	ActivePlans(ctx context.Context) ([]Plan, error)
}
