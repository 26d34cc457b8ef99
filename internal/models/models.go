package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBalance is the balance a user starts with, materialized on first read.
const DefaultBalance = 100

// Quota action names. One counter per (user, action, UTC date).
const (
	ActionDaily    = "daily"
	ActionTheft    = "theft"
	ActionExchange = "exchange"
	ActionGrant    = "grant"
)

// SeedGatewayAPIKey is the bootstrap API key for the chat gateway in dev.
// Production overrides it with GATEWAY_API_KEY.
const SeedGatewayAPIKey = "ecobot_gateway_dev_key_do_not_share"

// User is a chat-platform user's balance row. IDs are opaque platform
// identifiers (e.g. a Discord snowflake rendered as text).
type User struct {
	ID      string `json:"id"`
	Balance int    `json:"balance"`
}

// QuotaRecord counts uses of one action by one user on one UTC calendar day.
// Absence of a row means zero uses; rows are never decremented or pruned.
type QuotaRecord struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
	Date   string `json:"date"`
	Count  int    `json:"count"`
}

// Operator is a human admin-panel account (not a game user).
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// APIKey authenticates the chat gateway on the /v1 machine API.
type APIKey struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	KeyHash   string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
