package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  token_signing_secret: "01234567890123456789012345678901"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 900*time.Second, cfg.Auth.AccessTokenLifetime)
	assert.Equal(t, 604800*time.Second, cfg.Auth.RefreshTokenLifetime)
	assert.Equal(t, 3600*time.Second, cfg.Revocation.SweepInterval)
	assert.Equal(t, "testnet", cfg.Ledger.Network)
	assert.Equal(t, "memory://", cfg.Storage.URL)
	assert.Equal(t, "localhost:3000", cfg.Server.BindAddress)
}

func TestLoadFromFileRejectsShortSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  token_signing_secret: "too-short"
`), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileRejectsMissingSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`environment: production`), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileSubstitutesEnvVars(t *testing.T) {
	t.Setenv("NDAVAULT_TEST_SECRET", "abcdefghijabcdefghijabcdefghijab")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  token_signing_secret: "${NDAVAULT_TEST_SECRET}"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijabcdefghijabcdefghijab", cfg.Auth.TokenSigningSecret)
}

func TestLoadFallsBackWhenNoFileExists(t *testing.T) {
	t.Setenv("NDAVAULT_TOKEN_SIGNING_SECRET", "abcdefghijabcdefghijabcdefghijab")

	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijabcdefghijabcdefghijab", cfg.Auth.TokenSigningSecret)
	assert.Equal(t, "localhost:3000", cfg.Server.BindAddress)
}

func TestEnvironmentOverrideTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  token_signing_secret: "01234567890123456789012345678901"
server:
  bind_address: "0.0.0.0:3000"
`), 0o644))

	t.Setenv("NDAVAULT_BIND_ADDRESS", "0.0.0.0:9999")

	cfg, err := Load(LoaderOptions{ConfigDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.BindAddress)
}
