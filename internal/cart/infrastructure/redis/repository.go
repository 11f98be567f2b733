// Package redis stores cart snapshots under cartItems:{session} and keeps
// the outbox next to them so both are written in one MULTI/EXEC.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	"github.com/dmehra2102/grocery-cart/pkg/outbox"
)

const (
	keySeq      = "cart:outbox:seq"
	keyEvents   = "cart:outbox:events"
	keyPending  = "cart:outbox:pending"
	keyInflight = "cart:outbox:inflight"
	keyFailed   = "cart:outbox:failed"
)

func SnapshotKey(sessionID string) string {
	return domain.SnapshotKey + ":" + sessionID
}

type Repository struct {
	log *slog.Logger
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRepository(log *slog.Logger, rdb redis.UniversalClient) *Repository {
	return &Repository{log: log, rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, SnapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, application.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Repository) SaveWithOutbox(ctx context.Context, sessionID string, snapshot []byte, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	id, err := r.rdb.Incr(ctx, keySeq).Result()
	if err != nil {
		return fmt.Errorf("outbox seq: %w", err)
	}
	ev, err := json.Marshal(outbox.Event{
		ID:            id,
		AggregateType: domain.AggregateType,
		AggregateID:   sessionID,
		Type:          eventType,
		Payload:       payload,
		Headers:       headers,
		Traceparent:   traceparent,
		CreatedAt:     r.now(),
		Status:        outbox.StatusPending,
	})
	if err != nil {
		return err
	}

	field := strconv.FormatInt(id, 10)
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, SnapshotKey(sessionID), snapshot, 0)
		p.HSet(ctx, keyEvents, field, ev)
		p.RPush(ctx, keyPending, field)
		return nil
	})
	return err
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
