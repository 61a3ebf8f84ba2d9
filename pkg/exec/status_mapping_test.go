package exec

import (
	"testing"

	"github.com/joripage/execution-core/pkg/exec/model"
)

func TestMapBrokerStatus(t *testing.T) {
	cases := []struct {
		in   string
		want model.OrderStatus
	}{
		{"new", model.OrderStatusSubmitted},
		{"accepted", model.OrderStatusSubmitted},
		{"partially_filled", model.OrderStatusPartiallyFilled},
		{"filled", model.OrderStatusFilled},
		{"canceled", model.OrderStatusCancelled},
		{"cancelled", model.OrderStatusCancelled},
		{"pending_cancel", model.OrderStatusPendingCancel},
		{"rejected", model.OrderStatusRejected},
		{"expired", model.OrderStatusExpired},
		{"done_for_day", model.OrderStatusExpired},
		// spelling variants brokers actually send
		{"FILLED", model.OrderStatusFilled},
		{" Partially Filled ", model.OrderStatusPartiallyFilled},
		{"Pending Cancel", model.OrderStatusPendingCancel},
	}
	for _, tc := range cases {
		if got := mapBrokerStatus(tc.in); got != tc.want {
			t.Errorf("mapBrokerStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMapBrokerStatusUnknownStaysPending(t *testing.T) {
	for _, in := range []string{"", "calculating", "replaced", "weird_new_state"} {
		if got := mapBrokerStatus(in); got != model.OrderStatusSubmitted {
			t.Errorf("mapBrokerStatus(%q) = %s, want Submitted", in, got)
		}
	}
}
