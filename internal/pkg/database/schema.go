package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// schemaStatements bootstraps the tables the API needs. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email       TEXT UNIQUE,
		phone       TEXT UNIQUE,
		role        TEXT NOT NULL DEFAULT 'citizen',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (email IS NOT NULL OR phone IS NOT NULL)
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		location    JSONB,
		images      TEXT[],
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ,
		user_id     UUID REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status)`,
}

// EnsureSchema creates missing tables and indexes
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Info().Int("statements", len(schemaStatements)).Msg("Database schema ensured")
	return nil
}
