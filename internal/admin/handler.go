// Package admin serves the operator-facing configuration panel: grouped
// config inspection and editing, plus gateway API key management.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ecobot/backend/internal/config"
	"github.com/ecobot/backend/internal/durafmt"
	"github.com/ecobot/backend/internal/economy"
	"github.com/ecobot/backend/internal/middleware"
	"github.com/ecobot/backend/internal/models"
)

// ConfigStore is the config surface the panel needs.
type ConfigStore interface {
	GetInt(ctx context.Context, key string) (int, error)
	SetFromText(ctx context.Context, key, raw string) (int, error)
	KindOf(key string) (config.Kind, bool)
}

// APIKeyStore manages gateway API keys.
type APIKeyStore interface {
	Create(ctx context.Context, k *models.APIKey) error
	List(ctx context.Context) ([]*models.APIKey, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EconomyService is the slice of the engine the panel's moderation actions use.
type EconomyService interface {
	Grant(ctx context.Context, callerID, targetID string, amount int) (*economy.GrantResult, error)
	Remove(ctx context.Context, targetID string, amount int) (*economy.RemoveResult, error)
	Reset(ctx context.Context, targetID string) (*economy.ResetResult, error)
}

type Handler struct {
	Cfg    ConfigStore
	Keys   APIKeyStore
	Econ   EconomyService
	Logger *slog.Logger
}

// ConfigEntry is one tunable parameter as rendered in the panel.
type ConfigEntry struct {
	Key     string `json:"key"`
	Value   int    `json:"value"`
	Kind    string `json:"kind"`
	Display string `json:"display"`
}

// ConfigCategory groups entries for display.
type ConfigCategory struct {
	Name    string        `json:"name"`
	Entries []ConfigEntry `json:"entries"`
}

// --- GET /api/v1/admin/config ---

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	var out []ConfigCategory
	for _, cat := range config.Categories() {
		c := ConfigCategory{Name: cat.Name}
		for _, key := range cat.Keys {
			value, err := h.Cfg.GetInt(r.Context(), key)
			if err != nil {
				h.Logger.Error("config read failed", "key", key, "error", err)
				writeError(w, http.StatusInternalServerError, "config read failed")
				return
			}
			entry := ConfigEntry{Key: key, Value: value, Kind: "int", Display: ""}
			if kind, ok := h.Cfg.KindOf(key); ok && kind == config.KindDuration {
				entry.Kind = "duration"
				entry.Display = durafmt.Format(value)
			}
			c.Entries = append(c.Entries, entry)
		}
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// --- PUT /api/v1/admin/config/{key} ---

func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, "missing value")
		return
	}
	value, err := h.Cfg.SetFromText(r.Context(), key, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrUnknownKey):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, config.ErrInvalidDuration), errors.Is(err, config.ErrInvalidNumber):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("config set failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "config update failed")
		}
		return
	}
	display := ""
	if kind, ok := h.Cfg.KindOf(key); ok && kind == config.KindDuration {
		display = durafmt.Format(value)
	}
	op := middleware.OperatorFromCtx(r.Context())
	if op != nil {
		h.Logger.Info("config updated", "key", key, "value", value, "operator", op.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value, "display": display})
}

// --- GET /api/v1/admin/api-keys ---

func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Keys.List(r.Context())
	if err != nil {
		h.Logger.Error("list api keys failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"api_keys": keys})
}

// --- POST /api/v1/admin/api-keys ---

func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "missing label")
		return
	}
	raw, err := newRawKey()
	if err != nil {
		h.Logger.Error("key generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "key generation failed")
		return
	}
	key := &models.APIKey{
		ID:       uuid.New(),
		Label:    req.Label,
		KeyHash:  middleware.HashKey(raw),
		IsActive: true,
	}
	if err := h.Keys.Create(r.Context(), key); err != nil {
		h.Logger.Error("create api key failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	// The raw key is shown exactly once; only its hash is stored.
	writeJSON(w, http.StatusCreated, map[string]any{"api_key": key, "raw_key": raw})
}

// --- DELETE /api/v1/admin/api-keys/{id} ---

func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}
	if err := h.Keys.Delete(r.Context(), id); err != nil {
		h.Logger.Error("delete api key failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- POST /api/v1/admin/grant ---

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CallerID string `json:"caller_id"`
		TargetID string `json:"target_id"`
		Amount   int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CallerID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "missing caller_id or target_id")
		return
	}
	res, err := h.Econ.Grant(r.Context(), req.CallerID, req.TargetID, req.Amount)
	if err != nil {
		h.writeEconomyError(w, err)
		return
	}
	h.auditLog(r, "grant", "target", req.TargetID, "amount", req.Amount)
	writeJSON(w, http.StatusOK, res)
}

// --- POST /api/v1/admin/remove ---

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"target_id"`
		Amount   int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "missing target_id")
		return
	}
	res, err := h.Econ.Remove(r.Context(), req.TargetID, req.Amount)
	if err != nil {
		h.writeEconomyError(w, err)
		return
	}
	h.auditLog(r, "remove", "target", req.TargetID, "amount", req.Amount)
	writeJSON(w, http.StatusOK, res)
}

// --- POST /api/v1/admin/reset ---

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "missing target_id")
		return
	}
	res, err := h.Econ.Reset(r.Context(), req.TargetID)
	if err != nil {
		h.writeEconomyError(w, err)
		return
	}
	h.auditLog(r, "reset", "target", req.TargetID)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeEconomyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("moderation action failed", "error", err)
		writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

// auditLog records who did what from the panel.
func (h *Handler) auditLog(r *http.Request, action string, args ...any) {
	op := middleware.OperatorFromCtx(r.Context())
	fields := []any{"action", action}
	if op != nil {
		fields = append(fields, "operator", op.ID)
	}
	fields = append(fields, args...)
	h.Logger.Info("admin action", fields...)
}

func newRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "eco_" + hex.EncodeToString(buf), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
