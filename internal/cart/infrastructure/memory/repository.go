// Package memory keeps cart snapshots and their outbox in process memory.
// It backs local development and tests; nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	"github.com/dmehra2102/grocery-cart/pkg/outbox"
)

type Repository struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	events    []outbox.Event
	nextID    int64
	now       func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		snapshots: make(map[string][]byte),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) Load(_ context.Context, sessionID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.snapshots[sessionID]
	if !ok {
		return nil, application.ErrSnapshotNotFound
	}
	return slices.Clone(data), nil
}

func (r *Repository) SaveWithOutbox(_ context.Context, sessionID string, snapshot []byte, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[sessionID] = slices.Clone(snapshot)
	r.nextID++
	r.events = append(r.events, outbox.Event{
		ID:            r.nextID,
		AggregateType: domain.AggregateType,
		AggregateID:   sessionID,
		Type:          eventType,
		Payload:       slices.Clone(payload),
		Headers:       headers,
		Traceparent:   traceparent,
		CreatedAt:     r.now(),
		Status:        outbox.StatusPending,
	})
	return nil
}

// Put seeds a raw snapshot, bypassing the outbox.
func (r *Repository) Put(sessionID string, snapshot []byte) {
	r.mu.Lock()
	r.snapshots[sessionID] = slices.Clone(snapshot)
	r.mu.Unlock()
}

func (r *Repository) Ping(context.Context) error { return nil }

// Events returns a copy of every outbox row regardless of status.
func (r *Repository) Events() []outbox.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *Repository) LockBatch(_ context.Context, relayID string, batchSize int, _ time.Duration) ([]outbox.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batch []outbox.Event
	for i := range r.events {
		if len(batch) == batchSize {
			break
		}
		if r.events[i].Status != outbox.StatusPending {
			continue
		}
		r.events[i].Status = outbox.StatusInProgress
		r.events[i].RelayID = relayID
		batch = append(batch, r.events[i])
	}
	return batch, nil
}

func (r *Repository) MarkSent(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if slices.Contains(ids, r.events[i].ID) {
			r.events[i].Status = outbox.StatusSent
		}
	}
	return nil
}

func (r *Repository) MarkFailed(_ context.Context, id int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			msg := errMsg
			r.events[i].Status = outbox.StatusFailed
			r.events[i].LastError = &msg
			r.events[i].RetryCount++
		}
	}
	return nil
}

func (r *Repository) ExtendLease(context.Context, string, []int64, time.Duration) error {
	return nil
}
