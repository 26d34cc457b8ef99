package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecobot/backend/internal/models"
)

const ctxOperatorKey contextKey = "operator"

// TokenValidator validates a session token and returns the operator id and role.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// Operator identifies the authenticated admin-panel user.
type Operator struct {
	ID   uuid.UUID
	Role string
}

// RequireAdmin authenticates the Bearer JWT and rejects operators without the
// admin role. The authenticated operator is set into request context.
func RequireAdmin(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			id, role, err := v.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if role != models.RoleAdmin {
				http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxOperatorKey, &Operator{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromCtx returns the authenticated operator or nil.
func OperatorFromCtx(ctx context.Context) *Operator {
	op, _ := ctx.Value(ctxOperatorKey).(*Operator)
	return op
}
