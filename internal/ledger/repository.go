// Package ledger owns the per-user balance table. Balances are created
// lazily with the default starting amount and never go below zero.
package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecobot/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBalance returns the user's balance, materializing a default row on first
// reference. Single round-trip: the no-op DO UPDATE makes RETURNING yield the
// existing balance when the row is already there.
func (r *Repository) GetBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, balance) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET balance = users.balance
		RETURNING balance
	`, userID, models.DefaultBalance).Scan(&balance)
	return balance, err
}

// GetBalanceTx is GetBalance inside the caller's transaction. The upsert
// takes the row lock, so concurrent operations on the same user serialize.
func (r *Repository) GetBalanceTx(ctx context.Context, tx pgx.Tx, userID string) (int, error) {
	var balance int
	err := tx.QueryRow(ctx, `
		INSERT INTO users (id, balance) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET balance = users.balance
		RETURNING balance
	`, userID, models.DefaultBalance).Scan(&balance)
	return balance, err
}

// ApplyDelta adds delta to the user's balance, flooring at zero, and returns
// the new balance. A large negative delta clamps silently; callers that must
// reject overdrafts check the balance first. Call within a transaction.
func (r *Repository) ApplyDelta(ctx context.Context, tx pgx.Tx, userID string, delta int) (int, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id, balance) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, userID, models.DefaultBalance); err != nil {
		return 0, err
	}
	var newBalance int
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance = GREATEST(balance + $2, 0)
		WHERE id = $1
		RETURNING balance
	`, userID, delta).Scan(&newBalance)
	return newBalance, err
}

// Top returns up to limit users ordered by balance descending. Ties break on
// id so the leaderboard is stable.
func (r *Repository) Top(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, balance FROM users ORDER BY balance DESC, id LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Balance); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
