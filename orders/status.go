package orders

import (
	"verlo/models"
)

// transitions is the shared allow-list for order status changes. It is used
// by user actions (cancel), operator actions (ship, deliver) and webhook
// event processing alike, so replayed or reordered events converge instead of
// resurrecting terminal orders.
var transitions = map[string][]string{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// CanTransition reports whether to is reachable from from. Same-state
// requests are not transitions and are rejected.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedFrom returns every state from which to is reachable, for use as the
// current-state condition of an atomic update.
func AllowedFrom(to string) []string {
	var from []string
	for state, targets := range transitions {
		for _, t := range targets {
			if t == to {
				from = append(from, state)
			}
		}
	}
	return from
}

// CanCancel reports whether a user-initiated cancellation is permitted.
func CanCancel(status string) bool {
	return CanTransition(status, models.OrderCancelled)
}
