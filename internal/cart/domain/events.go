package domain

import "time"

const (
	EventItemAdded    = "CartItemAdded"
	EventItemRemoved  = "CartItemRemoved"
	EventCleared      = "CartCleared"
	EventActionUndone = "CartActionUndone"
)

const AggregateType = "cart"

// ActivityEvent is the outbox payload for every cart mutation.
type ActivityEvent struct {
	SessionID        string    `json:"session_id"`
	ItemID           int       `json:"item_id,omitempty"`
	ItemName         string    `json:"item_name,omitempty"`
	PreviousQuantity int       `json:"previous_quantity"`
	Quantity         int       `json:"quantity"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// MutationEvent names the event for a quantity change of one item.
func MutationEvent(prev, next int) string {
	if next > prev {
		return EventItemAdded
	}
	return EventItemRemoved
}
