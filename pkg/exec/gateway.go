package exec

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// PlaceOrderAck is the broker's answer to a submission. Accepted=false is
// an explicit rejection; transport failures surface as errors instead.
type PlaceOrderAck struct {
	BrokerOrderID string
	Accepted      bool
	Message       string
}

// OrderStatusReport carries the broker's view of one order. Status uses
// the broker's native vocabulary and is mapped internally.
type OrderStatusReport struct {
	Status       string
	FilledQty    decimal.Decimal
	AvgFillPrice decimal.Decimal
}

// BrokerPosition is one broker-reported position; shorts carry a negative
// quantity.
type BrokerPosition struct {
	Symbol string
	Qty    decimal.Decimal
}

// ExecutionGateway abstracts the broker. All calls block on the network
// and honor ctx cancellation.
type ExecutionGateway interface {
	PlaceOrder(ctx context.Context, clientID string, req *model.OrderRequest) (*PlaceOrderAck, error)
	CancelOrder(ctx context.Context, brokerOrderID string) (bool, error)
	GetOrderStatus(ctx context.Context, brokerOrderID string) (*OrderStatusReport, error)
	GetPositions(ctx context.Context) ([]BrokerPosition, error)
	GetBuyingPower(ctx context.Context) (decimal.Decimal, error)
	IsMarketOpen(ctx context.Context) (bool, error)
}
