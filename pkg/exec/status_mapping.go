package exec

import (
	"strings"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// brokerStatusMapping translates broker-native status vocabulary onto the
// internal enum. Keys cover both FIX-style and REST-broker spellings.
// Anything unrecognized is treated as still pending (Submitted) rather
// than silently terminal.
var brokerStatusMapping = map[string]model.OrderStatus{
	"new":              model.OrderStatusSubmitted,
	"accepted":         model.OrderStatusSubmitted,
	"pending_new":      model.OrderStatusSubmitted,
	"open":             model.OrderStatusSubmitted,
	"partially_filled": model.OrderStatusPartiallyFilled,
	"partial_fill":     model.OrderStatusPartiallyFilled,
	"filled":           model.OrderStatusFilled,
	"done_for_day":     model.OrderStatusExpired,
	"expired":          model.OrderStatusExpired,
	"canceled":         model.OrderStatusCancelled,
	"cancelled":        model.OrderStatusCancelled,
	"pending_cancel":   model.OrderStatusPendingCancel,
	"rejected":         model.OrderStatusRejected,
	"stopped":          model.OrderStatusSubmitted,
	"suspended":        model.OrderStatusSubmitted,
}

func mapBrokerStatus(s string) model.OrderStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	if st, ok := brokerStatusMapping[key]; ok {
		return st
	}
	return model.OrderStatusSubmitted
}
