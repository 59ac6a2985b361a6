// Package database opens the Postgres handle shared by the repositories and
// bootstraps the schema.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Connect opens a sqlx handle over the pgx stdlib driver.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           BIGSERIAL PRIMARY KEY,
	provider     TEXT NOT NULL,
	provider_id  TEXT NOT NULL,
	email        TEXT NOT NULL,
	display_name TEXT NOT NULL,
	avatar_url   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (provider, provider_id)
);

CREATE TABLE IF NOT EXISTS reports (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL CHECK (kind IN ('lost', 'found')),
	creator_id  BIGINT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location_id TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	tags        TEXT[] NOT NULL DEFAULT '{}',
	image_urls  TEXT[] NOT NULL DEFAULT '{}',
	status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved', 'archived')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reports_match ON reports (kind, status, (tags[1]), location_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_reports_creator ON reports (creator_id);

CREATE TABLE IF NOT EXISTS claims (
	id           UUID PRIMARY KEY,
	requester_id BIGINT NOT NULL,
	report_id    UUID NOT NULL REFERENCES reports (id),
	report_kind  TEXT NOT NULL,
	message      TEXT NOT NULL CHECK (btrim(message) <> ''),
	image_urls   TEXT[] NOT NULL DEFAULT '{}',
	duplicate    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_claims_report ON claims (report_id, requester_id);

CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	claim_id   UUID NOT NULL REFERENCES claims (id),
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT FALSE,
	read_at    TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);
DROP INDEX IF EXISTS idx_notifications_claim;
CREATE UNIQUE INDEX IF NOT EXISTS uq_notifications_claim ON notifications (claim_id);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
