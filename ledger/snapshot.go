package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one holding. AvgPrice is the quantity-weighted cost basis,
// updated only on buys. LastPrice is the most recent mark.
type Position struct {
	Symbol    string
	Quantity  int64
	AvgPrice  decimal.Decimal
	LastPrice decimal.Decimal
}

func (p Position) MarketValue() decimal.Decimal {
	return p.LastPrice.Mul(decimal.NewFromInt(p.Quantity))
}

func (p Position) CostBasis() decimal.Decimal {
	return p.AvgPrice.Mul(decimal.NewFromInt(p.Quantity))
}

func (p Position) UnrealizedPnL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// UnrealizedPnLPct is the unrealized P&L as a percentage of cost basis.
func (p Position) UnrealizedPnLPct() decimal.Decimal {
	basis := p.CostBasis()
	if basis.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL().DivRound(basis, 8).Mul(decimal.NewFromInt(100))
}

// Snapshot is an immutable copy of account state. It holds no references
// into the ledger, so a concurrent mutation cannot be observed through it.
type Snapshot struct {
	Time           time.Time
	InitialCapital decimal.Decimal
	Cash           decimal.Decimal
	RealizedPnL    decimal.Decimal
	Positions      []Position
}

func (s Snapshot) MarketValue() decimal.Decimal {
	mv := decimal.Zero
	for _, p := range s.Positions {
		mv = mv.Add(p.MarketValue())
	}
	return mv
}

// TotalEquity is cash plus mark-to-market value of open positions.
func (s Snapshot) TotalEquity() decimal.Decimal {
	return s.Cash.Add(s.MarketValue())
}

func (s Snapshot) TotalPnL() decimal.Decimal {
	return s.TotalEquity().Sub(s.InitialCapital)
}

func (s Snapshot) TotalPnLPct() decimal.Decimal {
	if s.InitialCapital.IsZero() {
		return decimal.Zero
	}
	return s.TotalPnL().DivRound(s.InitialCapital, 8).Mul(decimal.NewFromInt(100))
}
