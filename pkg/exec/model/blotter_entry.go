package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BlotterEntry is one append-only audit row. Rows are never rewritten
// except for Status, which may be bumped in place to the last known state.
// The sequence of rows sharing an OrderID is that order's audit trail.
type BlotterEntry struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string          `gorm:"index" json:"order_id"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Side      OrderSide       `json:"side"`
	Quantity  decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric" json:"price"`
	Status    OrderStatus     `json:"status"`
}

func (BlotterEntry) TableName() string {
	return "blotter_entries"
}
