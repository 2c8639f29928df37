package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"papertrade/plan"
)

func testPlan() plan.Plan {
	return plan.Plan{
		ID:       1,
		Symbol:   "AAPL",
		BuyPrice: 100,
		Targets:  []float64{110, 120},
		StopLoss: 95,
		Status:   plan.StatusActive,
	}
}

func freshState(p plan.Plan) *planState {
	return &planState{
		fingerprint:  p.Fingerprint(),
		targetsFired: make([]bool, len(p.Targets)),
	}
}

func TestDecidePriority(t *testing.T) {
	t.Parallel()

	p := testPlan()

	tests := []struct {
		name     string
		price    float64
		held     int64
		mutate   func(*planState)
		wantKind actionKind
		wantTgt  int
	}{
		{"entry_inside_band", 100.5, 0, nil, actBuy, 0},
		{"entry_lower_band_edge", 99.0, 0, nil, actBuy, 0},
		{"below_band_no_entry", 90.0, 0, nil, actNone, 0},
		{"above_band_no_entry", 102.0, 0, nil, actNone, 0},
		{"no_rebuy_after_entry", 100.0, 0, func(st *planState) { st.entryFilled = true }, actNone, 0},
		{"stop_crossing", 94.0, 10, nil, actSellStop, 0},
		{"gap_through_stop_still_fires", 60.0, 10, nil, actSellStop, 0},
		{"first_target", 111.0, 10, nil, actSellTarget, 0},
		{"second_target_after_first_consumed", 121.0, 5,
			func(st *planState) { st.targetsFired[0] = true }, actSellTarget, 1},
		{"consumed_target_never_refires", 111.0, 5,
			func(st *planState) { st.targetsFired[0] = true }, actNone, 0},
		{"stopped_plan_is_inert", 94.0, 10, func(st *planState) { st.stopped = true }, actNone, 0},
		{"no_sell_without_position", 94.0, 0, nil, actNone, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := freshState(p)
			if tt.mutate != nil {
				tt.mutate(st)
			}
			dec := decide(p, st, tt.price, tt.held, 0.01)
			assert.Equal(t, tt.wantKind, dec.kind)
			if tt.wantKind == actSellTarget {
				assert.Equal(t, tt.wantTgt, dec.target)
			}
		})
	}
}

// A price below the stop AND above a target cannot happen for a sane plan,
// but stop priority must hold for inverted plans too.
func TestDecideStopBeatsTarget(t *testing.T) {
	t.Parallel()

	p := testPlan()
	p.StopLoss = 115 // inverted: stop above first target
	st := freshState(p)

	dec := decide(p, st, 112, 10, 0.01)
	assert.Equal(t, actSellStop, dec.kind)
}

func TestSellQuantityTranches(t *testing.T) {
	t.Parallel()

	p := testPlan() // two targets

	st := freshState(p)
	st.filledQty = 10

	// First target sells half the original fill.
	got := st.sellQuantity(p, decision{kind: actSellTarget, target: 0}, 10)
	assert.EqualValues(t, 5, got)

	// Final target clears whatever remains.
	got = st.sellQuantity(p, decision{kind: actSellTarget, target: 1}, 5)
	assert.EqualValues(t, 5, got)

	// Stop always clears the full position.
	got = st.sellQuantity(p, decision{kind: actSellStop}, 7)
	assert.EqualValues(t, 7, got)

	// A fill too small to split is closed in one go.
	st.filledQty = 1
	got = st.sellQuantity(p, decision{kind: actSellTarget, target: 0}, 1)
	assert.EqualValues(t, 1, got)
}
