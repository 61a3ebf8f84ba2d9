package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "Pending"
	OrderStatusSubmitted       OrderStatus = "Submitted"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCancelled       OrderStatus = "Cancelled"
	OrderStatusRejected        OrderStatus = "Rejected"
	OrderStatusExpired         OrderStatus = "Expired"
	OrderStatusPendingCancel   OrderStatus = "PendingCancel"
	OrderStatusFailed          OrderStatus = "Failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected,
		OrderStatusExpired, OrderStatusFailed:
		return true
	}
	return false
}

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderKind string

const (
	OrderKindMarket    OrderKind = "MARKET"
	OrderKindLimit     OrderKind = "LIMIT"
	OrderKindStop      OrderKind = "STOP"
	OrderKindStopLimit OrderKind = "STOP_LIMIT"
)

type OrderTimeInForce string

const (
	OrderTimeInForceDAY OrderTimeInForce = "DAY"
	OrderTimeInForceGTC OrderTimeInForce = "GTC"
	OrderTimeInForceIOC OrderTimeInForce = "IOC"
	OrderTimeInForceFOK OrderTimeInForce = "FOK"
)

// QtyEpsilon absorbs floating-point noise in broker-reported fill
// quantities: a remaining quantity at or below it counts as zero.
var QtyEpsilon = decimal.New(1, -6)

// OrderRecord tracks one order through its full lifecycle, from local
// creation to a terminal state at the broker.
type OrderRecord struct {
	// ClientID is the locally generated correlation id; immutable.
	// BrokerID stays empty until the broker acknowledges the submission.
	ClientID string
	BrokerID string

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

	Status         OrderStatus
	FilledQuantity decimal.Decimal
	AvgFillPrice   decimal.Decimal
	Fees           decimal.Decimal

	CreatedAt   time.Time
	SubmittedAt time.Time
	UpdatedAt   time.Time
	FilledAt    time.Time

	Attempts    int
	MaxAttempts int
	LastError   string
}

func NewOrderRecord(clientID string, req *OrderRequest, maxAttempts int, now time.Time) *OrderRecord {
	return &OrderRecord{
		ClientID:    clientID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Kind:        req.Kind,
		TimeInForce: req.TimeInForce,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		StopPrice:   req.StopPrice,
		TargetPrice: req.TargetPrice,
		StrategyTag: req.StrategyTag,
		Confidence:  req.Confidence,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		MaxAttempts: maxAttempts,
	}
}

// Remaining is the unfilled part of the requested quantity.
func (o *OrderRecord) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// IsComplete reports whether the remaining quantity rounds to zero.
func (o *OrderRecord) IsComplete() bool {
	return o.Remaining().LessThanOrEqual(QtyEpsilon)
}

func (o *OrderRecord) CanCancel() bool {
	return !o.Status.IsTerminal() && o.Status != OrderStatusPending
}

// ApplyFill folds one incremental fill (qty at price) into the record:
// filled quantity, volume-weighted average price and status. Returns the
// quantity actually applied, which is clamped so the cumulative fill never
// exceeds the requested quantity. Non-positive quantities are ignored.
func (o *OrderRecord) ApplyFill(qty, price decimal.Decimal, now time.Time) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	if rem := o.Remaining(); qty.GreaterThan(rem) {
		qty = rem
	}
	if !qty.IsPositive() {
		return decimal.Zero
	}

	total := o.FilledQuantity.Add(qty)
	notional := o.AvgFillPrice.Mul(o.FilledQuantity).Add(price.Mul(qty))
	o.AvgFillPrice = notional.Div(total)
	o.FilledQuantity = total
	o.markFillStatus(now)
	return qty
}

// ApplyBrokerFill reconciles the record against a broker-reported
// cumulative filled quantity and cumulative average price, as returned by
// a status fetch. A reported decrease is a data anomaly and is ignored.
// Returns the positive fill delta, or zero when nothing changed.
func (o *OrderRecord) ApplyBrokerFill(cumQty, avgPrice decimal.Decimal, now time.Time) decimal.Decimal {
	if cumQty.GreaterThan(o.Quantity) {
		cumQty = o.Quantity
	}
	delta := cumQty.Sub(o.FilledQuantity)
	if !delta.IsPositive() {
		return decimal.Zero
	}

	o.FilledQuantity = cumQty
	if avgPrice.IsPositive() {
		o.AvgFillPrice = avgPrice
	}
	o.markFillStatus(now)
	return delta
}

func (o *OrderRecord) markFillStatus(now time.Time) {
	o.UpdatedAt = now
	if o.IsComplete() {
		o.Status = OrderStatusFilled
		o.FilledAt = now
		return
	}
	// A pending cancel can still fill, but a partial fill does not revoke
	// the cancel request.
	if o.Status != OrderStatusPendingCancel {
		o.Status = OrderStatusPartiallyFilled
	}
}
