package model

import "github.com/shopspring/decimal"

type SignalAction string

const (
	SignalActionBuy  SignalAction = "BUY"
	SignalActionSell SignalAction = "SELL"
	SignalActionHold SignalAction = "HOLD"
)

// Signal is what the strategy layer hands to the execution core.
type Signal struct {
	Symbol      string
	Action      SignalAction
	Confidence  float64
	StopPrice   decimal.Decimal
	TargetPrice decimal.Decimal
	StrategyTag string
}

// SignalResult makes the strategy boundary explicit: a failed signal
// computation must be an inspectable value, not a silent hold.
type SignalResult struct {
	Signal *Signal
	Err    error
}

func OkSignal(s *Signal) SignalResult {
	return SignalResult{Signal: s}
}

func ErrSignal(err error) SignalResult {
	return SignalResult{Err: err}
}

func (r SignalResult) Ok() bool {
	return r.Err == nil && r.Signal != nil
}

// OrHold collapses a failed result into an explicit hold.
func (r SignalResult) OrHold(symbol string) *Signal {
	if r.Ok() {
		return r.Signal
	}
	return &Signal{Symbol: symbol, Action: SignalActionHold}
}
