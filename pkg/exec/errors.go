package exec

import "errors"

var (
	ErrMaxOpenOrders      = errors.New("max concurrent orders reached")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderTerminal      = errors.New("order already in terminal state")
	ErrGatewayReject      = errors.New("gateway rejected order")
	ErrCancelDeclined     = errors.New("gateway declined cancel request")
	ErrCoordinatorStopped = errors.New("coordinator stopped")
)
