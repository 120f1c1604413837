package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "studyd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
storage:
  driver: "sqlite"
  path: "/tmp/studyd-test.db"
  poll_interval: "500ms"

sync:
  debounce: "250ms"
  status_buffer: 8

auth:
  token_secret: "a-yaml-secret-that-is-long-enough-to-pass"
  session_ttl: "24h"
  min_password_length: 8

log:
  level: "DEBUG"
  format: "json"
`

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, "studyd.db", cfg.Storage.Path)
	assert.Equal(t, time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 64, cfg.Sync.StatusBuffer)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STUDYD_SYNC_DEBOUNCE", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Storage.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 8, cfg.Sync.StatusBuffer)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		return Config{
			Storage: StorageConfig{Driver: "sqlite3", Path: "x.db"},
			Sync:    SyncConfig{Debounce: time.Second, StatusBuffer: 1, WriteTimeout: time.Second},
			Auth: AuthConfig{
				TokenSecret:       "0123456789abcdef0123456789abcdef",
				SessionTTL:        time.Hour,
				SessionFile:       "s.json",
				MinPasswordLength: 6,
				BcryptCost:        10,
				SignInPerMinute:   10,
				SignInBurst:       5,
			},
			Log: LogConfig{Level: "info", Format: "text"},
		}
	}

	ok := base()
	require.NoError(t, ok.Validate())

	cases := map[string]func(*Config){
		"driver":   func(c *Config) { c.Storage.Driver = "postgres" },
		"debounce": func(c *Config) { c.Sync.Debounce = 0 },
		"secret":   func(c *Config) { c.Auth.TokenSecret = "short" },
		"cost":     func(c *Config) { c.Auth.BcryptCost = 99 },
		"level":    func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
