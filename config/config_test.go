package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: travel
  name: travel
auth:
  jwt_secret: file-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HTTP.Address)
	assert.Equal(t, ":50051", cfg.GRPC.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "TRV", cfg.Booking.ConfirmationPrefix)
	assert.Equal(t, "USD", cfg.Booking.DefaultCurrency)
	assert.Equal(t, 10*time.Second, cfg.Booking.LockTTL())
	assert.Equal(t, 3*time.Second, cfg.Booking.LockWait())
	assert.Equal(t, "travel-app", cfg.Auth.Issuer)
	assert.Equal(t, 0, cfg.Worker.CompletionSweepMinutes)
	assert.Equal(t, "host=localhost port=5432 user=travel password= dbname=travel sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_PASSWORD", "pw")

	path := writeConfig(t, `
auth:
  jwt_secret: file-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "pw", cfg.Database.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(writeConfig(t, "http:\n  address: \":8080\"\n"))
	assert.ErrorContains(t, err, "jwt_secret is required")

	_, err = LoadConfig(writeConfig(t, "auth:\n  jwt_secret: s\nbooking:\n  default_currency: EURO\n"))
	assert.ErrorContains(t, err, "default_currency")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}
