// Package config is the tunable-parameter store for the economy. Values are
// persisted as opaque text and coerced to integers on read; every key has a
// static default that is materialized on first read (read-through,
// write-on-miss).
package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ecobot/backend/internal/durafmt"
)

var (
	// ErrUnknownKey is returned for keys with no entry in the default table.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrBadValue is returned when a stored value fails integer coercion.
	// This is surfaced, never silently replaced by the default.
	ErrBadValue = errors.New("stored config value is not an integer")
	// ErrInvalidDuration is returned by SetFromText when a duration-typed key
	// receives text that parses to zero seconds.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidNumber is returned by SetFromText when an integer-typed key
	// receives text that is not an integer.
	ErrInvalidNumber = errors.New("invalid number")
)

// Kind distinguishes plain integers from durations stored as seconds.
type Kind int

const (
	KindInt Kind = iota
	KindDuration
)

// Default is a config key's static default value and kind.
type Default struct {
	Value int
	Kind  Kind
}

// Defaults returns the full default table. The key set is fixed; callers get
// a fresh copy so the table injected into a Store stays immutable.
func Defaults() map[string]Default {
	return map[string]Default{
		// Daily
		"daily_amount":   {Value: 100, Kind: KindInt},
		"daily_cooldown": {Value: 86400, Kind: KindDuration},

		// Vol
		"vols_max_par_jours": {Value: 3, Kind: KindInt},
		"minimum_volable":    {Value: 10, Kind: KindInt},
		"maximum_volable":    {Value: 120, Kind: KindInt},
		"vol_cooldown":       {Value: 3600, Kind: KindDuration},

		// Échange
		"echanges_max_per_day": {Value: 5, Kind: KindInt},
		"echange_max_amount":   {Value: 500, Kind: KindInt},
		"echange_cooldown":     {Value: 0, Kind: KindDuration}, // 0 disables the gate
	}
}

// Category groups config keys for the admin panel.
type Category struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
}

// Categories returns the admin-panel grouping in display order.
func Categories() []Category {
	return []Category{
		{Name: "Daily", Keys: []string{"daily_amount", "daily_cooldown"}},
		{Name: "Vol", Keys: []string{"vols_max_par_jours", "minimum_volable", "maximum_volable", "vol_cooldown"}},
		{Name: "Échange", Keys: []string{"echanges_max_per_day", "echange_max_amount", "echange_cooldown"}},
	}
}

// DB is the subset of pgxpool.Pool the store needs. Tests provide an
// in-memory implementation.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store reads and writes config entries against the shared persistence handle.
type Store struct {
	db       DB
	defaults map[string]Default
}

// NewStore returns a Store using the given default table (normally Defaults()).
func NewStore(db DB, defaults map[string]Default) *Store {
	return &Store{db: db, defaults: defaults}
}

// KindOf reports the kind of a key, or false for unknown keys.
func (s *Store) KindOf(key string) (Kind, bool) {
	d, ok := s.defaults[key]
	return d.Kind, ok
}

// GetInt returns the stored value for key, inserting and returning the static
// default if no row exists yet.
func (s *Store) GetInt(ctx context.Context, key string) (int, error) {
	d, ok := s.defaults[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	var raw string
	err := s.db.QueryRow(ctx, `SELECT value FROM config WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO config (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, key, strconv.Itoa(d.Value)); err != nil {
			return 0, err
		}
		return d.Value, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: key %q holds %q", ErrBadValue, key, raw)
	}
	return v, nil
}

// Set upserts value for key. Range validation is the admin surface's job;
// the store only rejects unknown keys.
func (s *Store) Set(ctx context.Context, key string, value int) error {
	if _, ok := s.defaults[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, strconv.Itoa(value))
	return err
}

// SetFromText parses raw admin input according to the key's kind and stores
// the result. Duration keys go through the duration codec; a parse result of
// zero is rejected. Returns the stored value.
func (s *Store) SetFromText(ctx context.Context, key, raw string) (int, error) {
	d, ok := s.defaults[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	var value int
	switch d.Kind {
	case KindDuration:
		seconds := durafmt.Parse(raw)
		if seconds <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
		}
		value = seconds
	default:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
		}
		value = v
	}
	if err := s.Set(ctx, key, value); err != nil {
		return 0, err
	}
	return value, nil
}
