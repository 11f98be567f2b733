package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	cart "github.com/dmehra2102/grocery-cart/internal/cart/domain"
)

var (
	ErrUnknownEvent   = errors.New("unknown cart event")
	ErrMalformedEvent = errors.New("malformed cart event")
)

// Counters accumulates how often shoppers put items in and take them out.
type Counters interface {
	AddUnits(ctx context.Context, itemID int, n int64) error
	RemoveUnits(ctx context.Context, itemID int, n int64) error
	Cleared(ctx context.Context) error
}

type Projector struct {
	log      *slog.Logger
	counters Counters
}

func NewProjector(log *slog.Logger, counters Counters) *Projector {
	return &Projector{log: log, counters: counters}
}

// Apply folds one cart event into the counters. Undo events count in the
// direction they moved the quantity.
func (p *Projector) Apply(ctx context.Context, eventType string, payload []byte) error {
	var ev cart.ActivityEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, eventType, err)
	}

	delta := int64(ev.Quantity - ev.PreviousQuantity)
	switch eventType {
	case cart.EventCleared:
		return p.counters.Cleared(ctx)
	case cart.EventItemAdded, cart.EventItemRemoved, cart.EventActionUndone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}

	switch {
	case delta > 0:
		return p.counters.AddUnits(ctx, ev.ItemID, delta)
	case delta < 0:
		return p.counters.RemoveUnits(ctx, ev.ItemID, -delta)
	default:
		p.log.Debug("cart event without quantity change", "type", eventType, "session_id", ev.SessionID)
		return nil
	}
}
