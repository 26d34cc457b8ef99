package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist. Statements are idempotent
// so the server can run them on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id      TEXT PRIMARY KEY,
			balance INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS config (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quotas (
			user_id TEXT NOT NULL,
			action  TEXT NOT NULL,
			date    TEXT NOT NULL,
			count   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, action, date)
		)`,
		`CREATE TABLE IF NOT EXISTS cooldowns (
			user_id      TEXT NOT NULL,
			action       TEXT NOT NULL,
			last_used_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, action)
		)`,
		`CREATE TABLE IF NOT EXISTS operators (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			role          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id         UUID PRIMARY KEY,
			label      TEXT NOT NULL,
			key_hash   TEXT NOT NULL UNIQUE,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_balance ON users (balance DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
