// Package quota tracks per-user, per-action, per-UTC-day usage counters and
// last-used timestamps for cooldown gates. A missing counter row means zero
// uses today; the day boundary is implicit in the date column, so counts
// "reset" without any cleanup job.
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Day formats t as the UTC calendar date used as the quota key.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CountToday returns the user's use count for action on the given day.
// No row means zero. Call within a transaction.
func (r *Repository) CountToday(ctx context.Context, tx pgx.Tx, userID, action, day string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT count FROM quotas WHERE user_id = $1 AND action = $2 AND date = $3
	`, userID, action, day).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// Increment upserts the day's counter, creating it at 1. Counters are never
// decremented. Call within a transaction.
func (r *Repository) Increment(ctx context.Context, tx pgx.Tx, userID, action, day string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO quotas (user_id, action, date, count) VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, action, date) DO UPDATE SET count = quotas.count + 1
	`, userID, action, day)
	return err
}

// LastUsed returns when the user last performed action, or ok=false if never.
// Call within a transaction.
func (r *Repository) LastUsed(ctx context.Context, tx pgx.Tx, userID, action string) (time.Time, bool, error) {
	var at time.Time
	err := tx.QueryRow(ctx, `
		SELECT last_used_at FROM cooldowns WHERE user_id = $1 AND action = $2
	`, userID, action).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// Touch records that the user performed action at the given time. Call within
// a transaction.
func (r *Repository) Touch(ctx context.Context, tx pgx.Tx, userID, action string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cooldowns (user_id, action, last_used_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, action) DO UPDATE SET last_used_at = EXCLUDED.last_used_at
	`, userID, action, at)
	return err
}
