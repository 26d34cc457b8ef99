package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/ecobot/backend/internal/models"
)

type contextKey string

const ctxAPIKey contextKey = "api_key"

// APIKeyRepo is the interface used by API key auth middleware.
type APIKeyRepo interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*models.APIKey, error)
}

// APIKeyAuth authenticates the chat gateway by hashing the Bearer token
// (SHA-256) and looking it up in api_keys. On success it sets the key into
// request context.
func APIKeyAuth(repo APIKeyRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			key, err := repo.FindByKeyHash(r.Context(), HashKey(raw))
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxAPIKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromCtx returns the authenticated API key or nil.
func APIKeyFromCtx(ctx context.Context) *models.APIKey {
	k, _ := ctx.Value(ctxAPIKey).(*models.APIKey)
	return k
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// HashKey returns the hex SHA-256 of a raw API key, the form stored in the
// key_hash column.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
