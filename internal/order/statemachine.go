package order

// transitions is the single source of truth for legal status edges.
// pending → accepted → packed → dispatched → delivered, with
// packed → ready_for_pickup for pickup orders and cancellation allowed
// from any state that has not reached a terminal.
var transitions = map[string][]string{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusPacked, StatusCancelled},
	StatusPacked:     {StatusDispatched, StatusReadyForPickup, StatusCancelled},
	StatusDispatched: {StatusDelivered, StatusCancelled},
	// terminals
	StatusDelivered:      {},
	StatusReadyForPickup: {},
	StatusCancelled:      {},
}

// CanTransition reports whether from → to is a legal edge. Re-invoking a
// transition whose target equals the current status is a rejection, never a
// silent no-op.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether status admits no further transitions.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}
