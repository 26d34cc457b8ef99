package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ecobot/backend/internal/config"
	"github.com/ecobot/backend/internal/durafmt"
	"github.com/ecobot/backend/internal/economy"
	"github.com/ecobot/backend/internal/models"
)

// --- fakes ---

type fakeConfig struct {
	values   map[string]int
	defaults map[string]config.Default
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{values: map[string]int{}, defaults: config.Defaults()}
}

func (f *fakeConfig) GetInt(_ context.Context, key string) (int, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	d, ok := f.defaults[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", config.ErrUnknownKey, key)
	}
	return d.Value, nil
}

func (f *fakeConfig) SetFromText(_ context.Context, key, raw string) (int, error) {
	d, ok := f.defaults[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", config.ErrUnknownKey, key)
	}
	if d.Kind == config.KindDuration {
		seconds := durafmt.Parse(raw)
		if seconds <= 0 {
			return 0, fmt.Errorf("%w: %q", config.ErrInvalidDuration, raw)
		}
		f.values[key] = seconds
		return seconds, nil
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("%w: %q", config.ErrInvalidNumber, raw)
	}
	f.values[key] = v
	return v, nil
}

func (f *fakeConfig) KindOf(key string) (config.Kind, bool) {
	d, ok := f.defaults[key]
	return d.Kind, ok
}

type fakeKeys struct {
	created []*models.APIKey
	deleted []uuid.UUID
}

func (f *fakeKeys) Create(_ context.Context, k *models.APIKey) error {
	f.created = append(f.created, k)
	return nil
}

func (f *fakeKeys) List(context.Context) ([]*models.APIKey, error) {
	return f.created, nil
}

func (f *fakeKeys) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeEconomy struct {
	err error
}

func (f *fakeEconomy) Grant(context.Context, string, string, int) (*economy.GrantResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &economy.GrantResult{CallerBalance: 0, TargetBalance: 150}, nil
}

func (f *fakeEconomy) Remove(context.Context, string, int) (*economy.RemoveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &economy.RemoveResult{NewBalance: 50}, nil
}

func (f *fakeEconomy) Reset(context.Context, string) (*economy.ResetResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &economy.ResetResult{Removed: 80}, nil
}

func newTestHandler() (*Handler, *fakeConfig, *fakeKeys, *fakeEconomy) {
	cfg := newFakeConfig()
	keys := &fakeKeys{}
	econ := &fakeEconomy{}
	h := &Handler{
		Cfg:    cfg,
		Keys:   keys,
		Econ:   econ,
		Logger: slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)),
	}
	return h, cfg, keys, econ
}

// --- tests ---

func TestGetConfigGroupsByCategory(t *testing.T) {
	h, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/config", nil)
	rec := httptest.NewRecorder()
	h.GetConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Categories []ConfigCategory `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(body.Categories))
	}
	daily := body.Categories[0]
	if daily.Name != "Daily" || len(daily.Entries) != 2 {
		t.Fatalf("unexpected first category: %+v", daily)
	}
	cooldown := daily.Entries[1]
	if cooldown.Key != "daily_cooldown" || cooldown.Kind != "duration" {
		t.Fatalf("unexpected cooldown entry: %+v", cooldown)
	}
	if cooldown.Display != "1 day" {
		t.Fatalf("expected display '1 day', got %q", cooldown.Display)
	}
}

func TestSetConfigParsesDuration(t *testing.T) {
	h, cfg, _, _ := newTestHandler()

	body := bytes.NewReader([]byte(`{"value":"1h30m"}`))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/config/vol_cooldown", body)
	req.SetPathValue("key", "vol_cooldown")
	rec := httptest.NewRecorder()
	h.SetConfig(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cfg.values["vol_cooldown"] != 5400 {
		t.Fatalf("expected stored 5400, got %d", cfg.values["vol_cooldown"])
	}
}

func TestSetConfigUnknownKey404(t *testing.T) {
	h, _, _, _ := newTestHandler()

	body := bytes.NewReader([]byte(`{"value":"10"}`))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/config/no_such_key", body)
	req.SetPathValue("key", "no_such_key")
	rec := httptest.NewRecorder()
	h.SetConfig(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSetConfigBadDuration400(t *testing.T) {
	h, _, _, _ := newTestHandler()

	body := bytes.NewReader([]byte(`{"value":"soon"}`))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/config/daily_cooldown", body)
	req.SetPathValue("key", "daily_cooldown")
	rec := httptest.NewRecorder()
	h.SetConfig(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateAPIKeyReturnsRawOnce(t *testing.T) {
	h, _, keys, _ := newTestHandler()

	body := bytes.NewReader([]byte(`{"label":"gateway-2"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/api-keys", body)
	rec := httptest.NewRecorder()
	h.CreateAPIKey(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		RawKey string `json:"raw_key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.RawKey == "" {
		t.Fatal("expected a raw key in the create response")
	}
	if len(keys.created) != 1 {
		t.Fatalf("expected 1 stored key, got %d", len(keys.created))
	}
	if keys.created[0].KeyHash == res.RawKey {
		t.Fatal("stored key must be the hash, not the raw key")
	}
}

func TestRemoveInsufficientFunds409(t *testing.T) {
	h, _, _, econ := newTestHandler()
	econ.err = economy.ErrInsufficientFunds

	body := bytes.NewReader([]byte(`{"target_id":"u1","amount":500}`))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/remove", body)
	rec := httptest.NewRecorder()
	h.Remove(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
