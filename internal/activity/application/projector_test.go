package application

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/dmehra2102/grocery-cart/internal/cart/domain"
)

type tally struct {
	adds    map[int]int64
	removes map[int]int64
	clears  int
}

func newTally() *tally {
	return &tally{adds: map[int]int64{}, removes: map[int]int64{}}
}

func (t *tally) AddUnits(_ context.Context, itemID int, n int64) error {
	t.adds[itemID] += n
	return nil
}

func (t *tally) RemoveUnits(_ context.Context, itemID int, n int64) error {
	t.removes[itemID] += n
	return nil
}

func (t *tally) Cleared(context.Context) error {
	t.clears++
	return nil
}

func payload(t *testing.T, item, prev, next int) []byte {
	t.Helper()
	b, err := json.Marshal(cart.ActivityEvent{SessionID: "s", ItemID: item, PreviousQuantity: prev, Quantity: next})
	require.NoError(t, err)
	return b
}

func TestProjectorApply(t *testing.T) {
	ctx := context.Background()
	counters := newTally()
	p := NewProjector(slog.New(slog.NewTextHandler(io.Discard, nil)), counters)

	require.NoError(t, p.Apply(ctx, cart.EventItemAdded, payload(t, 1, 0, 3)))
	require.NoError(t, p.Apply(ctx, cart.EventItemRemoved, payload(t, 1, 3, 2)))
	require.NoError(t, p.Apply(ctx, cart.EventActionUndone, payload(t, 1, 2, 3)))
	require.NoError(t, p.Apply(ctx, cart.EventActionUndone, payload(t, 6, 1, 0)))
	require.NoError(t, p.Apply(ctx, cart.EventCleared, []byte(`{"session_id":"s"}`)))

	assert.Equal(t, int64(4), counters.adds[1])
	assert.Equal(t, int64(1), counters.removes[1])
	assert.Equal(t, int64(1), counters.removes[6])
	assert.Equal(t, 1, counters.clears)
}

func TestProjectorRejects(t *testing.T) {
	p := NewProjector(slog.New(slog.NewTextHandler(io.Discard, nil)), newTally())

	err := p.Apply(context.Background(), "OrderCreated", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	err = p.Apply(context.Background(), cart.EventItemAdded, []byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
