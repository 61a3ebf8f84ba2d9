package model

import "github.com/shopspring/decimal"

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// PositionSideForOrder maps an order side to the position side its fills
// open: buys open longs, sells open shorts.
func PositionSideForOrder(side OrderSide) PositionSide {
	if side == OrderSideSell {
		return PositionSideShort
	}
	return PositionSideLong
}

// Position is one open position as locally believed. At most one entry
// exists per symbol.
type Position struct {
	Symbol      string          `json:"symbol"`
	Side        PositionSide    `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	StopPrice   decimal.Decimal `json:"stop_price"`
	TargetPrice decimal.Decimal `json:"target_price"`
	StrategyTag string          `json:"strategy_tag"`
}

// SignedQuantity returns the quantity with shorts negated, matching the
// sign convention brokers use for reported positions.
func (p *Position) SignedQuantity() decimal.Decimal {
	if p.Side == PositionSideShort {
		return p.Quantity.Neg()
	}
	return p.Quantity
}
