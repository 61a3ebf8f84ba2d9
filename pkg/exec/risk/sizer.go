// Package risk holds the pure pre-trade sizing math. No I/O, no state
// beyond the configured limits.
package risk

import (
	"github.com/shopspring/decimal"
)

type Sizer struct {
	// MaxPositionRisk is the equity fraction risked per trade.
	MaxPositionRisk decimal.Decimal
	// MaxPositionPct caps one position's value as an equity fraction.
	MaxPositionPct decimal.Decimal
}

func NewSizer(maxPositionRisk, maxPositionPct float64) *Sizer {
	return &Sizer{
		MaxPositionRisk: decimal.NewFromFloat(maxPositionRisk),
		MaxPositionPct:  decimal.NewFromFloat(maxPositionPct),
	}
}

// Size returns a bounded trade quantity for the given account equity and
// prices. Without a usable stop the per-unit risk assumes total loss
// (the full current price). Returns zero on non-positive inputs; the
// result never exceeds the position-value cap.
func (s *Sizer) Size(accountValue, currentPrice, stopPrice decimal.Decimal) decimal.Decimal {
	if !accountValue.IsPositive() || !currentPrice.IsPositive() {
		return decimal.Zero
	}

	perUnitRisk := currentPrice
	if stopPrice.IsPositive() {
		if d := currentPrice.Sub(stopPrice).Abs(); d.IsPositive() {
			perUnitRisk = d
		}
	}

	raw := accountValue.Mul(s.MaxPositionRisk).Div(perUnitRisk)
	hardCap := accountValue.Mul(s.MaxPositionPct).Div(currentPrice)
	return decimal.Min(raw, hardCap)
}

// Holding is one portfolio entry for exposure accounting.
type Holding struct {
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
}

// Exposure is a portfolio-level diagnostic, not a hard gate.
type Exposure struct {
	TotalValue decimal.Decimal
	Weights    map[string]decimal.Decimal
	// Concentration is the sum of squared position weights
	// (Herfindahl-style): 1 means a single position, 1/n an even split.
	Concentration float64
}

// PortfolioExposure computes total exposure value and the concentration
// score over the given holdings.
func (s *Sizer) PortfolioExposure(holdings map[string]Holding) Exposure {
	exp := Exposure{
		Weights: make(map[string]decimal.Decimal, len(holdings)),
	}

	values := make(map[string]decimal.Decimal, len(holdings))
	for symbol, h := range holdings {
		v := h.Quantity.Mul(h.EntryPrice)
		values[symbol] = v
		exp.TotalValue = exp.TotalValue.Add(v)
	}
	if !exp.TotalValue.IsPositive() {
		return exp
	}

	for symbol, v := range values {
		w := v.Div(exp.TotalValue)
		exp.Weights[symbol] = w
		wf, _ := w.Float64()
		exp.Concentration += wf * wf
	}
	return exp
}
