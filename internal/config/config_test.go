package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, 3003, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 10000.0, cfg.Reading.ConfirmDelta)
	assert.Equal(t, 10000.0, cfg.Reading.MeterResetThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Reading.MaxPriceAge)
	assert.Equal(t, 0.9, cfg.Reading.CreditWarnRatio)
	assert.Equal(t, "@every 1h", cfg.Alerts.Schedule)
	assert.Equal(t, time.Minute, cfg.Redis.ListTTL)
	assert.Contains(t, cfg.Server.CorsAllowedHeaders, "x-tenant-id")
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte("server:\n  port: 8080\nreading:\n  confirm_delta: 5000\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("S3_BUCKET", "fuelsync-reports")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000.0, cfg.Reading.ConfirmDelta)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "fuelsync-reports", cfg.Storage.Bucket)
	assert.Equal(t, "rzp_test_key", cfg.Razorpay.KeyID)
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "fuel"
	cfg.Database.Password = "pw"
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.Name = "fuelsync"
	cfg.Database.SSLMode = "disable"

	assert.Equal(t, "postgres://fuel:pw@db:5432/fuelsync?sslmode=disable", cfg.DSN())
}
