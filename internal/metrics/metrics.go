// Package metrics registers Prometheus collectors for the cart and checkout
// subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CartOperations counts cart mutations and refreshes by operation and
	// outcome.
	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart operations by type and outcome.",
	}, []string{"op", "outcome"})

	// MergeAttempts counts guest-to-remote cart merges by outcome.
	MergeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_merge_attempts_total",
		Help: "Guest cart merge attempts by outcome.",
	}, []string{"outcome"})

	// OrderPlacements counts order placement attempts by outcome.
	OrderPlacements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_placements_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
)

// Outcome maps an error to the label value used across the counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
