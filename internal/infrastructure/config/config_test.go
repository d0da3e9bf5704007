package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.toml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stock-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 3, cfg.Deduction.MaxRetries)
	assert.Equal(t, 30*24*time.Hour, cfg.Alerting.ExpiryWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.Alerting.CriticalWindow)
	assert.Equal(t, "console", cfg.Log.Format, "development defaults to console logs")
	assert.Equal(t, cfg.App.Name, cfg.Telemetry.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCK_DATABASE_HOST", "db.internal")
	t.Setenv("STOCK_DATABASE_PASSWORD", "secret")
	t.Setenv("STOCK_DEDUCTION_MAX_RETRIES", "5")
	t.Setenv("STOCK_ALERTING_EXPIRY_WINDOW", "240h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 5, cfg.Deduction.MaxRetries)
	assert.Equal(t, 240*time.Hour, cfg.Alerting.ExpiryWindow)
}

func TestLoadRejectsInconsistentWindows(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCK_ALERTING_EXPIRY_WINDOW", "24h")
	t.Setenv("STOCK_ALERTING_CRITICAL_WINDOW", "48h")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical_window")
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432,
		User: "postgres", Password: "pw",
		DBName: "stock", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=stock sslmode=disable",
		cfg.DSN(),
	)
	assert.Equal(t,
		"postgres://postgres:pw@localhost:5432/stock?sslmode=disable",
		cfg.MigrateURL(),
	)
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
