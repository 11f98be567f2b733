package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/pkg/outbox"
)

var (
	_ application.CartRepository = (*Repository)(nil)
	_ outbox.Store               = (*Repository)(nil)
)

func TestLoadMissing(t *testing.T) {
	_, err := NewRepository().Load(context.Background(), "nope")
	assert.ErrorIs(t, err, application.ErrSnapshotNotFound)
}

func TestSaveWithOutboxAndRelayLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.SaveWithOutbox(ctx, "s1", []byte(`[]`), "CartCleared", []byte(`{}`), nil, ""))
	require.NoError(t, repo.SaveWithOutbox(ctx, "s1", []byte(`[{"id":1}]`), "CartItemAdded", []byte(`{}`), nil, "tp"))

	data, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data))

	batch, err := repo.LockBatch(ctx, "r1", 1, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(1), batch[0].ID)
	assert.Equal(t, "cart", batch[0].AggregateType)

	require.NoError(t, repo.MarkSent(ctx, []int64{1}))
	require.NoError(t, repo.MarkFailed(ctx, 2, "boom"))

	events := repo.Events()
	assert.Equal(t, outbox.StatusSent, events[0].Status)
	assert.Equal(t, outbox.StatusFailed, events[1].Status)
	require.NotNil(t, events[1].LastError)
	assert.Equal(t, "boom", *events[1].LastError)

	batch, err = repo.LockBatch(ctx, "r1", 10, time.Second)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
