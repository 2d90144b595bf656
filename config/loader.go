package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoaderOptions configures the configuration loader
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
}

// DefaultLoaderOptions returns default loader options
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir: "config",
	}
}

// Load loads configuration with automatic environment detection: it
// tries "<env>.yaml", then "default.yaml", then "config.yaml" inside
// ConfigDir, falling back to an all-defaults config if none exist.
// Environment variable overrides and validation are always applied
// last, so a missing file is not fatal as long as the environment
// supplies token-signing-secret.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	candidates := []string{
		filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env)),
		filepath.Join(options.ConfigDir, "default.yaml"),
		filepath.Join(options.ConfigDir, "config.yaml"),
	}

	cfg := &Config{}
	loaded := false
	for _, path := range candidates {
		if c, err := readConfigFile(path); err == nil {
			cfg = c
			loaded = true
			break
		}
	}
	if !loaded {
		setDefaults(cfg)
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	applyEnvironmentOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfigFile loads, defaults, and substitutes a single candidate
// file, without validating — Load validates once, after environment
// overrides are applied.
func readConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
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
	return cfg, nil
}

// applyEnvironmentOverrides lets deployment-time environment variables
// take precedence over file-sourced values, for the keys operators most
// commonly need to override without editing YAML.
func applyEnvironmentOverrides(cfg *Config) {
	if secret := os.Getenv("NDAVAULT_TOKEN_SIGNING_SECRET"); secret != "" {
		cfg.Auth.TokenSigningSecret = secret
	}
	if network := os.Getenv("NDAVAULT_LEDGER_NETWORK"); network != "" {
		cfg.Ledger.Network = network
	}
	if url := os.Getenv("NDAVAULT_STORAGE_URL"); url != "" {
		cfg.Storage.URL = url
	}
	if addr := os.Getenv("NDAVAULT_BIND_ADDRESS"); addr != "" {
		cfg.Server.BindAddress = addr
	}
	if logLevel := os.Getenv("NDAVAULT_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

// LoadForEnvironment loads configuration for a specific environment
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{
		ConfigDir:   "config",
		Environment: environment,
	})
}

// MustLoad loads configuration or panics on error
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
