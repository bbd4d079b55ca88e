// Package migrate applies the database schema at startup. The schema is small
// enough that idempotent CREATE IF NOT EXISTS statements beat a migration
// framework.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS sites (
		seq      BIGSERIAL,
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		district TEXT,
		address  TEXT,
		lat      DOUBLE PRECISION,
		lng      DOUBLE PRECISION
	)`,
	// doc is nullable: a NULL doc is a placeholder row claimed by a
	// first-check-in transaction so FOR UPDATE has a row to lock.
	`CREATE TABLE IF NOT EXISTS visit_ledgers (
		user_id    TEXT PRIMARY KEY,
		doc        JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id    TEXT NOT NULL,
		site_id    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, site_id)
	)`,
	`CREATE TABLE IF NOT EXISTS activity_events (
		id          BIGSERIAL PRIMARY KEY,
		user_id     TEXT NOT NULL,
		site_id     TEXT,
		site_name   TEXT NOT NULL DEFAULT '',
		kind        TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`ALTER TABLE visit_ledgers ALTER COLUMN doc DROP NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_sites_category ON sites (category)`,
	`CREATE INDEX IF NOT EXISTS idx_sites_district ON sites (district)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_events_occurred_at ON activity_events (occurred_at DESC)`,
}

// Apply creates all tables and indexes if missing.
func Apply(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
