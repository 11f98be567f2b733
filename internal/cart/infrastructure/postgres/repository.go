package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	"github.com/dmehra2102/grocery-cart/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var items []byte
	err := r.pool.QueryRow(ctx, `SELECT items FROM cart_snapshots WHERE session_id=$1`, sessionID).Scan(&items)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, application.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) SaveWithOutbox(ctx context.Context, sessionID string, snapshot []byte, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO cart_snapshots (session_id, items, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (session_id) DO UPDATE SET items=$2, updated_at=now()`,
		sessionID, snapshot)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		domain.AggregateType, sessionID, eventType, payload, headers, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// DefaultMaxAttempts bounds how often one event is handed back to the relay.
const DefaultMaxAttempts = 5

type OutboxStore struct {
	log         *slog.Logger
	pool        *pgxpool.Pool
	maxAttempts int
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool, maxAttempts: DefaultMaxAttempts}
}

// LockBatch claims pending rows and rows whose lease ran out, so a crashed
// relay's batch is picked up again.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count
		FROM outbox
		WHERE status = 'pending'
		   OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}

	var events []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		var headers map[string]string
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &headers, &ev.Traceparent, &ev.CreatedAt, &ev.RetryCount); err != nil {
			rows.Close()
			return nil, err
		}
		ev.Headers = headers
		ev.Status = outbox.StatusInProgress
		ev.RelayID = relayID
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`,
		relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// MarkSent settles rows this relay still holds. Rows whose lease lapsed and
// were reclaimed elsewhere are left alone and will be delivered again.
func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent', sent_at=now(), lease_until=NULL
		WHERE id = ANY($1) AND status='in_progress'`, ids)
	if err != nil {
		return err
	}
	if n := ct.RowsAffected(); n < int64(len(ids)) {
		s.log.Warn("outbox rows no longer held", "want", len(ids), "settled", n)
	}
	return nil
}

// MarkFailed hands the row back to the queue until it has failed
// maxAttempts times, then parks it as failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	var status string
	err := s.pool.QueryRow(ctx, `UPDATE outbox
		SET retry_count = retry_count + 1,
		    last_error = $2,
		    lease_until = NULL,
		    status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
		RETURNING status`, id, errMsg, s.maxAttempts).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("outbox row %d: %w", id, err)
	}
	if err != nil {
		return err
	}
	if status == string(outbox.StatusFailed) {
		s.log.Error("outbox event parked", "event_id", id, "attempts", s.maxAttempts, "err", errMsg)
	}
	return nil
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET lease_until = now() + $1::interval
		WHERE id = ANY($2) AND relay_id = $3 AND status = 'in_progress'`, lease.String(), ids, relayID)
	if err != nil {
		return err
	}
	if n := ct.RowsAffected(); n < int64(len(ids)) {
		s.log.Warn("outbox lease partly lost", "relay_id", relayID, "want", len(ids), "extended", n)
	}
	return nil
}
