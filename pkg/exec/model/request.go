package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError rejects a request before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OrderRequest carries the requested terms of a new order. TargetPrice is
// advisory and only flows through to the position ledger.
type OrderRequest struct {
	Symbol      string
	Side        OrderSide
	Kind        OrderKind
	TimeInForce OrderTimeInForce
	Quantity    decimal.Decimal
	LimitPrice  decimal.Decimal
	StopPrice   decimal.Decimal
	TargetPrice decimal.Decimal
	StrategyTag string
	Confidence  float64
}

func (r *OrderRequest) Validate() error {
	if r.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if !r.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	switch r.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return &ValidationError{Field: "side", Reason: fmt.Sprintf("unknown side %q", r.Side)}
	}
	switch r.Kind {
	case OrderKindMarket:
	case OrderKindLimit:
		if !r.LimitPrice.IsPositive() {
			return &ValidationError{Field: "limit_price", Reason: "required for limit orders"}
		}
	case OrderKindStop:
		if !r.StopPrice.IsPositive() {
			return &ValidationError{Field: "stop_price", Reason: "required for stop orders"}
		}
	case OrderKindStopLimit:
		if !r.LimitPrice.IsPositive() || !r.StopPrice.IsPositive() {
			return &ValidationError{Field: "stop_price", Reason: "stop-limit orders need both limit and stop prices"}
		}
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown order kind %q", r.Kind)}
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return &ValidationError{Field: "confidence", Reason: "must be within [0, 1]"}
	}
	return nil
}
