package router

import (
	"net/http"

	"github.com/ecobot/backend/internal/admin"
	"github.com/ecobot/backend/internal/auth"
	"github.com/ecobot/backend/internal/middleware"
)

// New returns an http.Handler serving the human-facing API under /api/v1:
// operator auth plus the admin panel. Admin routes require an admin JWT.
func New(authHandler *auth.Handler, adminHandler *admin.Handler, tokens middleware.TokenValidator) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	requireAdmin := middleware.RequireAdmin(tokens)
	adminRoute := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(h))
	}

	adminRoute("POST "+base+"/admin/grant", adminHandler.Grant)
	adminRoute("POST "+base+"/admin/remove", adminHandler.Remove)
	adminRoute("POST "+base+"/admin/reset", adminHandler.Reset)
	adminRoute("GET "+base+"/admin/config", adminHandler.GetConfig)
	adminRoute("PUT "+base+"/admin/config/{key}", adminHandler.SetConfig)
	adminRoute("GET "+base+"/admin/api-keys", adminHandler.ListAPIKeys)
	adminRoute("POST "+base+"/admin/api-keys", adminHandler.CreateAPIKey)
	adminRoute("DELETE "+base+"/admin/api-keys/{id}", adminHandler.DeleteAPIKey)

	return mux
}
