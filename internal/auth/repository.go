package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
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

// Create inserts a new operator account and returns it.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName, role string) (*models.Operator, error) {
	op := &models.Operator{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO operators (id, email, display_name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, op.ID, op.Email, op.DisplayName, op.Role, passwordHash).Scan(&op.CreatedAt)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// GetByEmail returns the operator and password hash for login.
// Returns nil without error when no such operator exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Operator, string, error) {
	var op models.Operator
	var passwordHash string
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, password_hash, created_at
		FROM operators WHERE email = $1
	`, email).Scan(&op.ID, &op.Email, &op.DisplayName, &op.Role, &passwordHash, &op.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &op, passwordHash, nil
}
