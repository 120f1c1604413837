package config

import "time"

// Config is the root application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the SQLite driver and database file.
type StorageConfig struct {
	Driver       string        `yaml:"driver"        env:"STUDYD_STORAGE_DRIVER"        env-default:"sqlite3"`
	Path         string        `yaml:"path"          env:"STUDYD_STORAGE_PATH"          env-default:"studyd.db"`
	PollInterval time.Duration `yaml:"poll_interval" env:"STUDYD_STORAGE_POLL_INTERVAL" env-default:"2s"`
}

// SyncConfig tunes the outbound write debounce.
type SyncConfig struct {
	Debounce     time.Duration `yaml:"debounce"      env:"STUDYD_SYNC_DEBOUNCE"      env-default:"1s"`
	StatusBuffer int           `yaml:"status_buffer" env:"STUDYD_SYNC_STATUS_BUFFER" env-default:"64"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"STUDYD_SYNC_WRITE_TIMEOUT" env-default:"10s"`
}

// AuthConfig holds account and session settings.
type AuthConfig struct {
	TokenSecret       string        `yaml:"token_secret"        env:"STUDYD_AUTH_TOKEN_SECRET"        env-default:"studyd-local-device-signing-secret"`
	TokenIssuer       string        `yaml:"token_issuer"        env:"STUDYD_AUTH_TOKEN_ISSUER"        env-default:"studyd"`
	SessionTTL        time.Duration `yaml:"session_ttl"         env:"STUDYD_AUTH_SESSION_TTL"         env-default:"720h"`
	SessionFile       string        `yaml:"session_file"        env:"STUDYD_AUTH_SESSION_FILE"        env-default:".studyd-session.json"`
	MinPasswordLength int           `yaml:"min_password_length" env:"STUDYD_AUTH_MIN_PASSWORD_LENGTH" env-default:"6"`
	BcryptCost        int           `yaml:"bcrypt_cost"         env:"STUDYD_AUTH_BCRYPT_COST"         env-default:"10"`
	SignInPerMinute   int           `yaml:"sign_in_per_minute"  env:"STUDYD_AUTH_SIGN_IN_PER_MINUTE"  env-default:"10"`
	SignInBurst       int           `yaml:"sign_in_burst"       env:"STUDYD_AUTH_SIGN_IN_BURST"       env-default:"5"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"STUDYD_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"STUDYD_LOG_FORMAT" env-default:"text"`
	File   string `yaml:"file"   env:"STUDYD_LOG_FILE"   env-default:"studyd.log"`
}
