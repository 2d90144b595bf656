// Package config loads ndavault's configuration from a YAML file with
// environment variable overlays, covering every key the core and its
// ambient services need.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure, covering the keys
// enumerated in §6.4 plus the ambient logging/metrics/health settings.
type Config struct {
	Environment string        `yaml:"environment" json:"environment"`
	Auth        AuthConfig    `yaml:"auth" json:"auth"`
	Revocation  RevocationConfig `yaml:"revocation" json:"revocation"`
	Ledger      LedgerConfig  `yaml:"ledger" json:"ledger"`
	Storage     StorageConfig `yaml:"storage" json:"storage"`
	Server      ServerConfig  `yaml:"server" json:"server"`
	Logging     LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig `yaml:"metrics" json:"metrics"`
	Health      HealthConfig  `yaml:"health" json:"health"`
}

// AuthConfig configures C4, the auth-token core.
type AuthConfig struct {
	// TokenSigningSecret is the HMAC key. No default: loading fails
	// closed if it is absent or under 32 bytes (§6.4).
	TokenSigningSecret  string        `yaml:"token_signing_secret" json:"token_signing_secret"`
	AccessTokenLifetime time.Duration `yaml:"access_token_lifetime" json:"access_token_lifetime"`
	RefreshTokenLifetime time.Duration `yaml:"refresh_token_lifetime" json:"refresh_token_lifetime"`
}

// RevocationConfig configures C5's background reaper.
type RevocationConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// LedgerConfig configures C3.
type LedgerConfig struct {
	Network        string        `yaml:"network" json:"network"` // testnet | public
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// StorageConfig configures C6.
type StorageConfig struct {
	// URL selects the persistence backend. "memory://" selects the
	// in-memory store; any other value is a Postgres DSN.
	URL string `yaml:"url" json:"url"`
}

// ServerConfig configures the HTTP transport bind address (A7).
type ServerConfig struct {
	BindAddress string `yaml:"bind_address" json:"bind_address"`
}

// LoggingConfig configures A1.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures A4's standalone server.
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	BindAddress string `yaml:"bind_address" json:"bind_address"`
}

// HealthConfig configures A5. Timeout and CacheTTL govern the checks
// served at GET /health on the main API server. Enabled and
// BindAddress are loaded but not used: no separate health server is
// started.
type HealthConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	BindAddress string        `yaml:"bind_address" json:"bind_address"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

const minSecretLen = 32

// LoadFromFile reads and parses a YAML config file, applies defaults,
// substitutes environment variables, and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	setDefaults(cfg)
	SubstituteEnvVarsInConfig(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults fills in every key from §6.4 that has one. token_signing_secret
// has no default by design.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Auth.AccessTokenLifetime == 0 {
		cfg.Auth.AccessTokenLifetime = 900 * time.Second
	}
	if cfg.Auth.RefreshTokenLifetime == 0 {
		cfg.Auth.RefreshTokenLifetime = 604800 * time.Second
	}
	if cfg.Revocation.SweepInterval == 0 {
		cfg.Revocation.SweepInterval = 3600 * time.Second
	}
	if cfg.Ledger.Network == "" {
		cfg.Ledger.Network = "testnet"
	}
	if cfg.Ledger.RequestTimeout == 0 {
		cfg.Ledger.RequestTimeout = 30 * time.Second
	}
	if cfg.Storage.URL == "" {
		cfg.Storage.URL = "memory://"
	}
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = "localhost:3000"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.BindAddress == "" {
		cfg.Metrics.BindAddress = "localhost:9090"
	}
	if cfg.Health.BindAddress == "" {
		cfg.Health.BindAddress = "localhost:9091"
	}
	if cfg.Health.Timeout == 0 {
		cfg.Health.Timeout = 5 * time.Second
	}
	if cfg.Health.CacheTTL == 0 {
		cfg.Health.CacheTTL = 10 * time.Second
	}
}

// Validate checks the invariants the rest of the core relies on,
// primarily that token_signing_secret is present and long enough (§6.4).
func Validate(cfg *Config) error {
	if len(cfg.Auth.TokenSigningSecret) < minSecretLen {
		return fmt.Errorf("auth.token_signing_secret must be set and at least %d bytes", minSecretLen)
	}
	return nil
}
