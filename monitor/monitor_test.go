package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/equity"
	"papertrade/feed"
	"papertrade/ledger"
	"papertrade/mlog"
	"papertrade/plan"
)

type stubSource struct {
	plans []plan.Plan
	err   error
}

func (s *stubSource) ActivePlans(ctx context.Context) ([]plan.Plan, error) {
	return s.plans, s.err
}

type harness struct {
	mon     *Monitor
	ledger  *ledger.Ledger
	source  *stubSource
	feed    *feed.Fixed
	sampler *equity.Sampler
	logs    *mlog.Store
}

func newHarness(t *testing.T, plans ...plan.Plan) *harness {
	t.Helper()

	h := &harness{
		ledger:  ledger.New(decimal.RequireFromString("100000")),
		source:  &stubSource{plans: plans},
		feed:    feed.NewFixed(nil),
		sampler: equity.NewSampler(100, 1000),
		logs:    mlog.NewStore(100),
	}
	h.mon = New(Config{
		EntryTolerance:      0.01,
		MaxPositionFraction: 0.1,
	}, h.ledger, h.source, h.feed, h.sampler, h.logs)
	return h
}

func (h *harness) lastEvent() mlog.Event {
	recent := h.logs.Recent(1)
	if len(recent) == 0 {
		return ""
	}
	return recent[0].Event
}

func TestTickEntrySizedByEquityFraction(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan())
	h.feed.Set("AAPL", 100)

	h.mon.Tick(context.Background())

	// 10% of 100k at price 100 buys 100 shares.
	pos, ok := h.ledger.Position("AAPL")
	require.True(t, ok)
	assert.EqualValues(t, 100, pos.Quantity)

	trades := h.ledger.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.ActionBuy, trades[0].Action)
	assert.Equal(t, mlog.EventBought, h.lastEvent())
}

func TestTickIsIdempotentAtSteadyPrice(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan())
	h.feed.Set("AAPL", 100)

	h.mon.Tick(context.Background())
	h.mon.Tick(context.Background())
	h.mon.Tick(context.Background())

	// Entry fired once; later ticks only observe.
	assert.Len(t, h.ledger.Trades(), 1)
	assert.Equal(t, mlog.EventHolding, h.lastEvent())
}

func TestTickStopClosesEntirePosition(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan())
	h.feed.Set("AAPL", 100)
	h.mon.Tick(context.Background())

	h.feed.Set("AAPL", 93) // gapped below the 95 stop
	h.mon.Tick(context.Background())

	_, ok := h.ledger.Position("AAPL")
	assert.False(t, ok)
	assert.Equal(t, mlog.EventSoldStop, h.lastEvent())

	// The stopped plan never re-enters, even back inside the band.
	h.feed.Set("AAPL", 100)
	h.mon.Tick(context.Background())
	assert.Len(t, h.ledger.Trades(), 2)
}

func TestTickTargetsSellInTranches(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan()) // targets 110, 120
	h.feed.Set("AAPL", 100)
	h.mon.Tick(context.Background())

	h.feed.Set("AAPL", 111)
	h.mon.Tick(context.Background())

	pos, ok := h.ledger.Position("AAPL")
	require.True(t, ok)
	assert.EqualValues(t, 50, pos.Quantity)
	assert.Equal(t, mlog.EventSoldTarget, h.lastEvent())

	// Same price again: first target is consumed, nothing fires.
	h.mon.Tick(context.Background())
	assert.Len(t, h.ledger.Trades(), 2)

	// Final target clears the remainder.
	h.feed.Set("AAPL", 121)
	h.mon.Tick(context.Background())

	_, ok = h.ledger.Position("AAPL")
	assert.False(t, ok)
	assert.Len(t, h.ledger.Trades(), 3)

	snap := h.ledger.Snapshot()
	assert.True(t, snap.RealizedPnL.IsPositive())
}

func TestTickPriceFailureIsolatedPerSymbol(t *testing.T) {
	t.Parallel()

	pa := testPlan()
	pb := testPlan()
	pb.ID = 2
	pb.Symbol = "MSFT"

	h := newHarness(t, pa, pb)
	h.feed.SetErr("AAPL", errors.New("quote unavailable"))
	h.feed.Set("MSFT", 100)

	h.mon.Tick(context.Background())

	// MSFT traded despite AAPL's feed failure.
	_, ok := h.ledger.Position("MSFT")
	assert.True(t, ok)
	_, ok = h.ledger.Position("AAPL")
	assert.False(t, ok)

	events := map[mlog.Event]bool{}
	for _, e := range h.logs.All() {
		events[e.Event] = true
	}
	assert.True(t, events[mlog.EventPriceFailed])
	assert.True(t, events[mlog.EventBought])
}

func TestTickSkipsPausedPlans(t *testing.T) {
	t.Parallel()

	p := testPlan()
	p.Status = plan.StatusPaused

	h := newHarness(t, p)
	h.feed.Set("AAPL", 100)

	h.mon.Tick(context.Background())

	assert.Empty(t, h.ledger.Trades())
}

func TestTickPlanLoadFailureOnlyLogs(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.source.err = errors.New("db locked")

	h.mon.Tick(context.Background())

	assert.Equal(t, mlog.EventPlanLoadFailed, h.lastEvent())
	assert.Empty(t, h.ledger.Trades())
	// A failed pass produces no equity sample either.
	assert.Zero(t, h.sampler.Len())
}

func TestTickNoPlansLogged(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mon.Tick(context.Background())

	all := h.logs.All()
	require.Len(t, all, 1)
	assert.Equal(t, mlog.EventNoPlans, all[0].Event)
}

func TestEditedPlanResetsTriggerState(t *testing.T) {
	t.Parallel()

	p := testPlan()
	h := newHarness(t, p)

	h.feed.Set("AAPL", 100)
	h.mon.Tick(context.Background())
	h.feed.Set("AAPL", 93)
	h.mon.Tick(context.Background()) // stopped out

	// Revised plan with a lower entry re-arms the same plan ID.
	revised := p
	revised.BuyPrice = 90
	revised.StopLoss = 85
	h.source.plans = []plan.Plan{revised}

	h.feed.Set("AAPL", 90)
	h.mon.Tick(context.Background())

	pos, ok := h.ledger.Position("AAPL")
	require.True(t, ok)
	assert.Positive(t, pos.Quantity)
	assert.Len(t, h.ledger.Trades(), 3)
}

func TestRestoredPositionCountsAsConsumedEntry(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan())

	// Simulate a position rebuilt from history before the first tick.
	require.NoError(t, h.ledger.Restore([]ledger.Trade{{
		ID:       "X",
		Symbol:   "AAPL",
		Action:   ledger.ActionBuy,
		Quantity: 30,
		Price:    decimal.RequireFromString("100"),
		Reason:   "entry",
	}}))

	h.feed.Set("AAPL", 100)
	h.mon.Tick(context.Background())

	// No fresh entry on top of the restored position.
	pos, ok := h.ledger.Position("AAPL")
	require.True(t, ok)
	assert.EqualValues(t, 30, pos.Quantity)
	assert.Len(t, h.ledger.Trades(), 1)

	// But its triggers still protect it.
	h.feed.Set("AAPL", 93)
	h.mon.Tick(context.Background())
	_, ok = h.ledger.Position("AAPL")
	assert.False(t, ok)
	assert.Len(t, h.ledger.Trades(), 2)
}

func TestTickSamplesEquityAndPublishes(t *testing.T) {
	t.Parallel()

	h := newHarness(t, testPlan())
	h.feed.Set("AAPL", 100)

	var got []Update
	h.mon.SetPublisher(publisherFunc(func(u Update) { got = append(got, u) }))

	h.mon.Tick(context.Background())

	// One sample from the fill, one from the end of the tick.
	assert.Equal(t, 2, h.sampler.Len())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Positions)
	assert.InDelta(t, 100000, got[0].TotalEquity, 0.01)
}

type publisherFunc func(Update)

func (f publisherFunc) Publish(u Update) { f(u) }
