package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	drivers    = []string{"sqlite3", "sqlite"}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (s *StorageConfig) validate() error {
	if !slices.Contains(drivers, s.Driver) {
		return fmt.Errorf("driver must be one of %v (got %q)", drivers, s.Driver)
	}
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if s.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be >= 0 (got %v)", s.PollInterval)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.Debounce < 10*time.Millisecond || s.Debounce > time.Minute {
		return fmt.Errorf("debounce must be between 10ms and 1m (got %v)", s.Debounce)
	}
	if s.StatusBuffer <= 0 {
		return fmt.Errorf("status_buffer must be > 0 (got %d)", s.StatusBuffer)
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be > 0 (got %v)", s.WriteTimeout)
	}
	return nil
}

func (a *AuthConfig) validate() error {
	if len(a.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 characters (got %d)", len(a.TokenSecret))
	}
	if a.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0 (got %v)", a.SessionTTL)
	}
	if strings.TrimSpace(a.SessionFile) == "" {
		return fmt.Errorf("session_file is required")
	}
	if a.MinPasswordLength < 1 || a.MinPasswordLength > 72 {
		return fmt.Errorf("min_password_length must be between 1 and 72 (got %d)", a.MinPasswordLength)
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d (got %d)", bcrypt.MinCost, bcrypt.MaxCost, a.BcryptCost)
	}
	if a.SignInPerMinute <= 0 || a.SignInBurst <= 0 {
		return fmt.Errorf("sign_in_per_minute and sign_in_burst must be > 0")
	}
	return nil
}

func (l *LogConfig) validate() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if !slices.Contains(logLevels, l.Level) {
		return fmt.Errorf("level must be one of %v (got %q)", logLevels, l.Level)
	}
	if !slices.Contains(logFormats, l.Format) {
		return fmt.Errorf("format must be one of %v (got %q)", logFormats, l.Format)
	}
	return nil
}
