package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment variable values
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// SubstituteEnvVarsInConfig recursively substitutes environment variables
// across every string-valued field of cfg.
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Environment = SubstituteEnvVars(cfg.Environment)

	cfg.Auth.TokenSigningSecret = SubstituteEnvVars(cfg.Auth.TokenSigningSecret)

	cfg.Ledger.Network = SubstituteEnvVars(cfg.Ledger.Network)

	cfg.Storage.URL = SubstituteEnvVars(cfg.Storage.URL)

	cfg.Server.BindAddress = SubstituteEnvVars(cfg.Server.BindAddress)

	cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
	cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)

	cfg.Metrics.BindAddress = SubstituteEnvVars(cfg.Metrics.BindAddress)

	cfg.Health.BindAddress = SubstituteEnvVars(cfg.Health.BindAddress)
}

// GetEnvironment returns the current environment from NDAVAULT_ENV or
// defaults to development.
func GetEnvironment() string {
	env := os.Getenv("NDAVAULT_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction returns true if running in production environment
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment returns true if running in development or local environment
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}
