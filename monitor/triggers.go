package monitor

import "papertrade/plan"

type actionKind int

const (
	actNone actionKind = iota
	actBuy
	actSellTarget
	actSellStop
)

// decision is the single action (at most) a plan takes in one tick.
type decision struct {
	kind   actionKind
	target int     // index into plan.Targets when kind == actSellTarget
	level  float64 // the threshold that fired
}

// planState tracks which of a plan's triggers have been consumed. A
// consumed trigger never re-fires; editing the plan's levels resets the
// state (see Plan.Fingerprint).
type planState struct {
	fingerprint  string
	entryFilled  bool
	filledQty    int64 // quantity bought at entry, basis for target tranches
	targetsFired []bool
	stopped      bool
}

// decide compares the current price against the plan's unconsumed
// thresholds. Priority order: stop loss first (loss protection beats profit
// taking), then targets ascending, then entry. Stop and targets fire on a
// crossing, so a gap through the stop still protects; entry fires only
// inside a tolerance band around the buy level, so a thesis is not entered
// far below the price it was written for.
func decide(p plan.Plan, st *planState, price float64, held int64, entryTol float64) decision {
	if held > 0 && !st.stopped {
		if p.StopLoss > 0 && price <= p.StopLoss {
			return decision{kind: actSellStop, level: p.StopLoss}
		}
		for i, tgt := range p.Targets {
			if i < len(st.targetsFired) && !st.targetsFired[i] && price >= tgt {
				return decision{kind: actSellTarget, target: i, level: tgt}
			}
		}
	}

	if held == 0 && !st.entryFilled && !st.stopped && p.BuyPrice > 0 {
		lo := p.BuyPrice * (1 - entryTol)
		hi := p.BuyPrice * (1 + entryTol)
		if price >= lo && price <= hi {
			return decision{kind: actBuy, level: p.BuyPrice}
		}
	}

	return decision{kind: actNone}
}

// sellQuantity sizes a target-level sell. Targets split the entry fill into
// equal tranches; the highest target, the stop, and any shortfall close the
// remainder so no dust position survives.
func (st *planState) sellQuantity(p plan.Plan, dec decision, held int64) int64 {
	if dec.kind == actSellStop {
		return held
	}
	n := int64(len(p.Targets))
	if n == 0 {
		return held
	}
	tranche := st.filledQty / n
	if tranche < 1 || dec.target == len(p.Targets)-1 || tranche > held {
		return held
	}
	return tranche
}
