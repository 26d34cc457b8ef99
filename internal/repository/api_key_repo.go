package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecobot/backend/internal/models"
)

type APIKeyRepo struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepo(pool *pgxpool.Pool) *APIKeyRepo {
	return &APIKeyRepo{pool: pool}
}

func (r *APIKeyRepo) Create(ctx context.Context, k *models.APIKey) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO api_keys (id, label, key_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, k.ID, k.Label, k.KeyHash, k.IsActive).Scan(&k.CreatedAt)
}

// EnsureKey inserts an active key with the given hash if none exists yet.
// Used at startup to seed the gateway's key.
func (r *APIKeyRepo) EnsureKey(ctx context.Context, keyHash, label string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, label, key_hash, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (key_hash) DO NOTHING
	`, uuid.New(), label, keyHash)
	return err
}

func (r *APIKeyRepo) List(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, label, key_hash, is_active, created_at
		FROM api_keys ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.APIKey{}
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Label, &k.KeyHash, &k.IsActive, &k.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &k)
	}
	return list, rows.Err()
}

func (r *APIKeyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM api_keys WHERE id = $1", id)
	return err
}

// FindByKeyHash returns the active key with the given hash, or an error if
// none matches.
func (r *APIKeyRepo) FindByKeyHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	var k models.APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, label, key_hash, is_active, created_at
		FROM api_keys WHERE key_hash = $1 AND is_active = TRUE
	`, keyHash).Scan(&k.ID, &k.Label, &k.KeyHash, &k.IsActive, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
