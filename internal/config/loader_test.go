package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LEADGEN_TEST_HOST", "db.internal")

	assert.Equal(t, "host: db.internal", expandEnv("host: ${LEADGEN_TEST_HOST:localhost}"))
	assert.Equal(t, "port: 5432", expandEnv("port: ${LEADGEN_TEST_UNSET:5432}"))
	assert.Equal(t, "dsn: ", expandEnv("dsn: ${LEADGEN_TEST_UNSET:}"))
	assert.Equal(t, "x: ${LEADGEN_TEST_UNSET}", expandEnv("x: ${LEADGEN_TEST_UNSET}"))
}

func TestLoadFrom_DefaultsAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
database:
  driver: sqlite
upstream:
  endpoint: http://backend:8000
`)
	writeConfig(t, dir, "config.staging.yaml", `
upstream:
  employee_batch_size: 25
`)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("AUTH_GOOGLE_ID", "google-client")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "http://backend:8000", cfg.Upstream.Endpoint)
	assert.Equal(t, 25, cfg.Upstream.EmployeeBatchSize)
	assert.Equal(t, 4, cfg.Upstream.MaxConcurrency)
	assert.Equal(t, "s3cret", cfg.Security.JWT.Secret)
	assert.Equal(t, "google-client", cfg.Auth.Google.ClientID)
	assert.Equal(t, 10*time.Minute, cfg.Auth.StateTTL)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.Auth.Google.Scopes)
}

func TestLoadFrom_EndpointFromEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "database:\n  driver: sqlite\n")
	t.Setenv("APP_ENV", "test")
	t.Setenv("ENDPOINT", "http://leads.example")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://leads.example", cfg.Upstream.Endpoint)
}

func TestLoadFrom_Validation(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	t.Run("unknown driver", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "config.yaml", "database:\n  driver: oracle\nupstream:\n  endpoint: http://x\n")
		_, err := LoadFrom(dir)
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("missing endpoint", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "config.yaml", "database:\n  driver: sqlite\n")
		_, err := LoadFrom(dir)
		assert.ErrorContains(t, err, "upstream.endpoint")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFrom(t.TempDir())
		assert.Error(t, err)
	})
}
