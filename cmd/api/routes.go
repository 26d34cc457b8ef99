package main

import (
	"net/http"

	"github.com/ecobot/backend/internal/economy"
	"github.com/ecobot/backend/internal/middleware"
	"github.com/ecobot/backend/internal/repository"
)

// RegisterV1Routes adds the /v1 machine API consumed by the chat gateway.
// Every route sits behind APIKeyAuth; the gateway enforces platform admin
// permissions before invoking the admin commands.
func RegisterV1Routes(mux *http.ServeMux, apiKeyRepo *repository.APIKeyRepo, eh *economy.Handler) {
	auth := middleware.APIKeyAuth(apiKeyRepo)
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}

	route("POST /v1/commands/daily", eh.Daily)
	route("POST /v1/commands/steal", eh.Steal)
	route("POST /v1/commands/exchange", eh.Exchange)
	route("POST /v1/commands/grant", eh.Grant)
	route("POST /v1/commands/remove", eh.Remove)
	route("POST /v1/commands/reset", eh.Reset)
	route("POST /v1/commands/config", eh.SetConfig)

	route("GET /v1/balances/{user_id}", eh.Balance)
	route("GET /v1/leaderboard", eh.Leaderboard)
}
