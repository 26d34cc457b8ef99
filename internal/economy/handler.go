package economy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecobot/backend/internal/config"
	"github.com/ecobot/backend/internal/durafmt"
	"github.com/ecobot/backend/internal/services"
)

// ConfigAdmin is the config surface the command API exposes to the gateway's
// admin commands.
type ConfigAdmin interface {
	SetFromText(ctx context.Context, key, raw string) (int, error)
	KindOf(key string) (config.Kind, bool)
}

// Handler serves the /v1 machine API consumed by the chat gateway. The
// gateway performs the platform's admin-permission check before calling the
// admin commands; the engine trusts it (it authenticated with an API key).
type Handler struct {
	Svc       Service
	Cfg       ConfigAdmin
	Validator *services.Validator
	Logger    *slog.Logger
}

type dailyRequest struct {
	UserID string `json:"user_id"`
}

type stealRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
}

type exchangeRequest struct {
	UserID   string `json:"user_id"`
	TargetID string `json:"target_id"`
	Amount   int    `json:"amount"`
}

type grantRequest struct {
	CallerID string `json:"caller_id"`
	TargetID string `json:"target_id"`
	Amount   int    `json:"amount"`
}

type removeRequest struct {
	TargetID string `json:"target_id"`
	Amount   int    `json:"amount"`
}

type resetRequest struct {
	TargetID string `json:"target_id"`
}

type configSetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// --- POST /v1/commands/daily ---

func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	var req dailyRequest
	if !h.decode(w, r, "daily", &req) {
		return
	}
	res, err := h.Svc.Daily(r.Context(), req.UserID)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/steal ---

func (h *Handler) Steal(w http.ResponseWriter, r *http.Request) {
	var req stealRequest
	if !h.decode(w, r, "steal", &req) {
		return
	}
	res, err := h.Svc.Steal(r.Context(), req.UserID, req.TargetID)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/exchange ---

func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !h.decode(w, r, "exchange", &req) {
		return
	}
	res, err := h.Svc.Exchange(r.Context(), req.UserID, req.TargetID, req.Amount)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/grant ---

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !h.decode(w, r, "grant", &req) {
		return
	}
	res, err := h.Svc.Grant(r.Context(), req.CallerID, req.TargetID, req.Amount)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/remove ---

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !h.decode(w, r, "remove", &req) {
		return
	}
	res, err := h.Svc.Remove(r.Context(), req.TargetID, req.Amount)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/reset ---

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, "reset", &req) {
		return
	}
	res, err := h.Svc.Reset(r.Context(), req.TargetID)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- POST /v1/commands/config ---

func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req configSetRequest
	if !h.decode(w, r, "config_set", &req) {
		return
	}
	value, err := h.Cfg.SetFromText(r.Context(), req.Key, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrUnknownKey),
			errors.Is(err, config.ErrInvalidDuration),
			errors.Is(err, config.ErrInvalidNumber):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("config set failed", "key", req.Key, "error", err)
			h.writeError(w, http.StatusInternalServerError, "config update failed")
		}
		return
	}
	display := ""
	if kind, ok := h.Cfg.KindOf(req.Key); ok && kind == config.KindDuration {
		display = durafmt.Format(value)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"key":     req.Key,
		"value":   value,
		"display": display,
	})
}

// --- GET /v1/balances/{user_id} ---

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "missing user_id")
		return
	}
	balance, err := h.Svc.Balance(r.Context(), userID)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "balance": balance})
}

// --- GET /v1/leaderboard ---

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.Leaderboard(r.Context())
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

// decode reads and schema-validates the body, then unmarshals into dst.
// Returns false when a response has already been written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, command string, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read body")
		return false
	}
	if h.Validator != nil {
		if err := h.Validator.Validate(command, body); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeOpError maps engine errors onto HTTP statuses. Validation failures are
// 400, quota and cooldown rejections 429, funds conflicts 409; anything else
// is an internal error.
func (h *Handler) writeOpError(w http.ResponseWriter, err error) {
	var cd *CooldownError
	switch {
	case errors.As(err, &cd):
		h.writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":               "on cooldown",
			"action":              cd.Action,
			"retry_after_seconds": int(cd.Remaining.Round(time.Second).Seconds()),
		})
	case errors.Is(err, ErrQuotaExceeded):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrTargetTooPoor):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSelfTarget), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAmountTooLarge):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
