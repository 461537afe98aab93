// Package credstore resolves the Places API key across three scopes: the
// process environment, a credential file, and the database settings table.
// The scopes heal each other: a key found in any scope is copied into the
// writable ones it is missing from, so the credential survives a database
// wipe or a fresh checkout.
package credstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenside/golfscout/internal/store"
)

// EnvVar is the read-only environment scope.
const EnvVar = "GOLFSCOUT_PLACES_KEY"

// SettingKey is the database scope's settings-table key. Clearing
// collection progress never touches settings, so the key survives resets.
const SettingKey = "places_api_key"

// ErrNoCredential is returned when no scope holds a key.
var ErrNoCredential = eris.New("credstore: no Places API key configured")

// SettingStore is the database scope. Implemented by internal/store.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Credentials resolves and persists the API key.
type Credentials struct {
	store SettingStore
	path  string
	env   func(string) string
}

// Option configures a Credentials.
type Option func(*Credentials)

// WithPath overrides the credential file location.
func WithPath(path string) Option {
	return func(c *Credentials) { c.path = path }
}

// WithEnv overrides environment lookup. Test hook.
func WithEnv(fn func(string) string) Option {
	return func(c *Credentials) { c.env = fn }
}

// New creates a Credentials over the given database scope. The default
// file scope lives under the user's config directory.
func New(st SettingStore, opts ...Option) *Credentials {
	c := &Credentials{store: st, env: os.Getenv}
	if home, err := os.UserHomeDir(); err == nil {
		c.path = filepath.Join(home, ".config", "golfscout", "credentials")
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PlacesKey returns the API key from the first scope that has it, in
// priority order env, file, database, and repairs the scopes it was
// missing from. Repair failures are logged, not fatal; the caller still
// gets a usable key.
func (c *Credentials) PlacesKey(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(c.env(EnvVar)); key != "" {
		c.repair(ctx, key)
		return key, nil
	}

	if key := c.readFile(); key != "" {
		c.repair(ctx, key)
		return key, nil
	}

	key, err := c.store.GetSetting(ctx, SettingKey)
	if err != nil {
		if eris.Is(err, store.ErrNoSetting) {
			return "", ErrNoCredential
		}
		return "", eris.Wrap(err, "credstore: read database scope")
	}
	c.repair(ctx, key)
	return key, nil
}

// Save persists the key into every writable scope. The environment scope
// is read-only and skipped.
func (c *Credentials) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return eris.New("credstore: refusing to save empty key")
	}
	if err := c.store.SetSetting(ctx, SettingKey, key); err != nil {
		return eris.Wrap(err, "credstore: save database scope")
	}
	if err := c.writeFile(key); err != nil {
		return eris.Wrap(err, "credstore: save file scope")
	}
	return nil
}

// repair copies key into any writable scope that is missing it or holds a
// different value.
func (c *Credentials) repair(ctx context.Context, key string) {
	if current, err := c.store.GetSetting(ctx, SettingKey); err != nil || current != key {
		if err := c.store.SetSetting(ctx, SettingKey, key); err != nil {
			zap.L().Warn("failed to repair database credential scope", zap.Error(err))
		}
	}
	if c.readFile() != key {
		if err := c.writeFile(key); err != nil {
			zap.L().Warn("failed to repair file credential scope", zap.Error(err))
		}
	}
}

func (c *Credentials) readFile() string {
	if c.path == "" {
		return ""
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *Credentials) writeFile(key string) error {
	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return eris.Wrap(err, "credstore: create config dir")
	}
	if err := os.WriteFile(c.path, []byte(key+"\n"), 0o600); err != nil {
		return eris.Wrap(err, "credstore: write credential file")
	}
	return nil
}
