package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	session_id  TEXT PRIMARY KEY,
	items       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outbox (
	id              BIGSERIAL PRIMARY KEY,
	aggregate_type  TEXT NOT NULL,
	aggregate_id    TEXT NOT NULL,
	type            TEXT NOT NULL,
	payload         JSONB NOT NULL,
	headers         JSONB NOT NULL DEFAULT '{}',
	traceparent     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'pending',
	relay_id        TEXT,
	lease_until     TIMESTAMPTZ,
	retry_count     INT NOT NULL DEFAULT 0,
	last_error      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at         TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (id) WHERE status = 'pending';
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
