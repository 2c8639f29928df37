// Package monitor runs the recurring evaluation loop: read active plans,
// fetch prices, fire unconsumed triggers against the ledger, and emit
// equity samples and log entries. It is the only writer of ledger and log
// state; everything else observes through read-only copies.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/equity"
	"papertrade/feed"
	"papertrade/ledger"
	"papertrade/mlog"
	"papertrade/plan"
)

type Config struct {
	// Interval between ticks. A tick that overruns the interval causes the
	// next scheduled tick to be skipped, never queued.
	Interval time.Duration
	// EntryTolerance is the band around a plan's buy level within which the
	// entry fires, as a fraction (0.01 = ±1%).
	EntryTolerance float64
	// MaxPositionFraction caps a new entry at this fraction of total equity.
	MaxPositionFraction float64
}

// Publisher receives the dashboard snapshot produced at the end of each
// tick. Implemented by the web hub; optional.
type Publisher interface {
	Publish(Update)
}

// Update is the per-tick dashboard push payload.
type Update struct {
	Time        time.Time `json:"time"`
	Cash        float64   `json:"cash"`
	MarketValue float64   `json:"market_value"`
	TotalEquity float64   `json:"total_equity"`
	TotalPnL    float64   `json:"total_pnl"`
	TotalPnLPct float64   `json:"total_pnl_pct"`
	Positions   int       `json:"positions"`
}

type Monitor struct {
	cfg     Config
	ledger  *ledger.Ledger
	plans   plan.Source
	feed    feed.Feed
	sampler *equity.Sampler
	logs    *mlog.Store
	logger  *log.Logger
	pub     Publisher

	tickMu sync.Mutex
	states map[int64]*planState
}

func New(cfg Config, led *ledger.Ledger, plans plan.Source, priceFeed feed.Feed,
	sampler *equity.Sampler, logs *mlog.Store) *Monitor {
	return &Monitor{
		cfg:     cfg,
		ledger:  led,
		plans:   plans,
		feed:    priceFeed,
		sampler: sampler,
		logs:    logs,
		logger:  log.Default(),
		states:  make(map[int64]*planState),
	}
}

func (m *Monitor) SetLogger(l *log.Logger) { m.logger = l }

// SetPublisher attaches a dashboard publisher. Pass nil to detach.
func (m *Monitor) SetPublisher(p Publisher) { m.pub = p }

// Run executes ticks at the configured interval until ctx is cancelled.
// An in-flight tick finishes applying any already-decided mutation before
// the loop exits; a mutation is never left half-applied.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Printf("monitor started (interval %s)", m.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Printf("monitor stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
			// Drop a tick that fired while we were busy: bounded catch-up,
			// never a backlog.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Tick runs one evaluation pass. Ticks are serialized; a second caller
// blocks until the first finishes.
func (m *Monitor) Tick(ctx context.Context) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	plans, err := m.plans.ActivePlans(ctx)
	if err != nil {
		m.logs.Append(mlog.Entry{
			Type: mlog.TypeWarning, Event: mlog.EventPlanLoadFailed, Detail: err.Error(),
		})
		return
	}

	if len(plans) == 0 {
		m.logs.Append(mlog.Entry{Type: mlog.TypeInfo, Event: mlog.EventNoPlans})
	}

	for _, p := range plans {
		// Stop starting new evaluations once cancelled; the pass already in
		// evalPlan runs to completion.
		if ctx.Err() != nil {
			break
		}
		if p.Status == plan.StatusPaused {
			continue
		}
		m.evalPlan(ctx, p)
	}

	m.sampleEquity()
	m.publish()
}

// evalPlan evaluates one plan in isolation. A price failure here is logged
// and skipped; it never aborts the tick for other plans.
func (m *Monitor) evalPlan(ctx context.Context, p plan.Plan) {
	st := m.stateFor(p)

	price, err := m.feed.Price(ctx, p.Symbol)
	if err != nil {
		m.logs.Append(mlog.Entry{
			Type: mlog.TypeWarning, Event: mlog.EventPriceFailed,
			Symbol: p.Symbol, Detail: err.Error(),
		})
		return
	}

	dp := decimal.NewFromFloat(price)
	m.ledger.MarkPrice(p.Symbol, dp)

	var held int64
	if pos, ok := m.ledger.Position(p.Symbol); ok {
		held = pos.Quantity
	}

	dec := decide(p, st, price, held, m.cfg.EntryTolerance)
	switch dec.kind {
	case actBuy:
		m.executeBuy(p, st, dp, price)
	case actSellTarget, actSellStop:
		m.executeSell(p, st, dec, dp, price, held)
	default:
		m.logStatus(p, st, price, held)
	}
}

func (m *Monitor) executeBuy(p plan.Plan, st *planState, dp decimal.Decimal, price float64) {
	snap := m.ledger.Snapshot()
	budget := snap.TotalEquity().Mul(decimal.NewFromFloat(m.cfg.MaxPositionFraction))
	qty := budget.Div(dp).IntPart()
	if qty < 1 {
		m.logs.Append(mlog.Entry{
			Type: mlog.TypeWarning, Event: mlog.EventCashShort,
			Symbol: p.Symbol, Price: price,
		})
		return
	}

	tr, err := m.ledger.Buy(p.Symbol, qty, dp, "entry")
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			m.logs.Append(mlog.Entry{
				Type: mlog.TypeWarning, Event: mlog.EventCashShort,
				Symbol: p.Symbol, Price: price,
			})
			return
		}
		if tr.ID == "" {
			m.logs.Append(mlog.Entry{
				Type: mlog.TypeError, Event: mlog.EventOrderRejected,
				Symbol: p.Symbol, Detail: err.Error(),
			})
			return
		}
		// Trade committed, journaling failed. The ledger stays authoritative.
		m.logger.Printf("journal: %v", err)
	}

	st.entryFilled = true
	st.filledQty = qty

	m.logs.Append(mlog.Entry{
		Type: mlog.TypeTrade, Event: mlog.EventBought,
		Symbol: p.Symbol, Quantity: qty, Price: price, Level: p.BuyPrice,
	})
	m.sampleEquity()
}

func (m *Monitor) executeSell(p plan.Plan, st *planState, dec decision, dp decimal.Decimal, price float64, held int64) {
	qty := st.sellQuantity(p, dec, held)

	reason := "target"
	if dec.kind == actSellStop {
		reason = "stop"
	}

	pos, _ := m.ledger.Position(p.Symbol)
	tr, err := m.ledger.Sell(p.Symbol, qty, dp, reason)
	if err != nil {
		if tr.ID == "" {
			m.logs.Append(mlog.Entry{
				Type: mlog.TypeError, Event: mlog.EventOrderRejected,
				Symbol: p.Symbol, Detail: err.Error(),
			})
			return
		}
		m.logger.Printf("journal: %v", err)
	}

	event := mlog.EventSoldTarget
	if dec.kind == actSellStop {
		event = mlog.EventSoldStop
		st.stopped = true
		for i := range st.targetsFired {
			st.targetsFired[i] = true
		}
	} else {
		st.targetsFired[dec.target] = true
		if qty == held {
			// Position fully closed; remaining lower targets can't fire anyway.
			for i := range st.targetsFired {
				st.targetsFired[i] = true
			}
		}
	}

	pnl := tr.RealizedPnL
	var pnlPct decimal.Decimal
	if basis := pos.AvgPrice.Mul(decimal.NewFromInt(qty)); basis.IsPositive() {
		pnlPct = pnl.DivRound(basis, 8).Mul(decimal.NewFromInt(100))
	}

	m.logs.Append(mlog.Entry{
		Type: mlog.TypeTrade, Event: event,
		Symbol: p.Symbol, Quantity: qty, Price: price, Level: dec.level,
		PnL: pnl.InexactFloat64(), PnLPct: pnlPct.InexactFloat64(),
	})
	m.sampleEquity()
}

func (m *Monitor) logStatus(p plan.Plan, st *planState, price float64, held int64) {
	switch {
	case held > 0:
		m.logs.Append(mlog.Entry{
			Type: mlog.TypeInfo, Event: mlog.EventHolding,
			Symbol: p.Symbol, Quantity: held, Price: price,
		})
	case !st.entryFilled && !st.stopped:
		event := mlog.EventWaitingEntry
		if price > p.BuyPrice*(1+m.cfg.EntryTolerance) {
			event = mlog.EventAboveEntry
		}
		m.logs.Append(mlog.Entry{
			Type: mlog.TypeInfo, Event: event,
			Symbol: p.Symbol, Price: price, Level: p.BuyPrice,
		})
	}
}

// stateFor returns the trigger state for a plan, creating or resetting it
// when the plan's levels change. A position already held for the symbol
// (e.g. restored from the journal) counts as a consumed entry.
func (m *Monitor) stateFor(p plan.Plan) *planState {
	st, ok := m.states[p.ID]
	if ok && st.fingerprint == p.Fingerprint() {
		return st
	}

	st = &planState{
		fingerprint:  p.Fingerprint(),
		targetsFired: make([]bool, len(p.Targets)),
	}
	if pos, held := m.ledger.Position(p.Symbol); held && pos.Quantity > 0 {
		st.entryFilled = true
		st.filledQty = pos.Quantity
	}
	m.states[p.ID] = st
	return st
}

func (m *Monitor) sampleEquity() {
	snap := m.ledger.Snapshot()
	m.sampler.Append(equity.Point{
		Time:        snap.Time,
		Cash:        snap.Cash.InexactFloat64(),
		MarketValue: snap.MarketValue().InexactFloat64(),
		TotalEquity: snap.TotalEquity().InexactFloat64(),
	})
}

func (m *Monitor) publish() {
	if m.pub == nil {
		return
	}
	snap := m.ledger.Snapshot()
	m.pub.Publish(Update{
		Time:        snap.Time,
		Cash:        snap.Cash.InexactFloat64(),
		MarketValue: snap.MarketValue().InexactFloat64(),
		TotalEquity: snap.TotalEquity().InexactFloat64(),
		TotalPnL:    snap.TotalPnL().InexactFloat64(),
		TotalPnLPct: snap.TotalPnLPct().InexactFloat64(),
		Positions:   len(snap.Positions),
	})
}
