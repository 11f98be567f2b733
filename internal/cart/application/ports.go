package application

import (
	"context"
	"errors"
	"time"

	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
)

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// CartRepository persists the full cart snapshot of a session together with
// the activity event describing the change, atomically.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	SaveWithOutbox(ctx context.Context, sessionID string, snapshot []byte, eventType string, payload []byte, headers map[string]string, traceparent string) error
}

type Catalog interface {
	Item(id int) (catalog.Item, bool)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
