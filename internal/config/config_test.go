package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BRIDGE_SERVER__PUBLIC_BASE_URL", "https://bridge.example.com")
	t.Setenv("BRIDGE_DATABASE__HOST", "localhost")
	t.Setenv("BRIDGE_DATABASE__PORT", "5432")
	t.Setenv("BRIDGE_DATABASE__USER", "bridge")
	t.Setenv("BRIDGE_DATABASE__PASSWORD", "p@ss word")
	t.Setenv("BRIDGE_DATABASE__NAME", "bridge")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://bridge.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "https://api.rehive.com/3", cfg.Ledger.BaseURL)
	assert.Equal(t, int64(2), cfg.Processor.MaxNetworkRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, int32(3), cfg.Retry.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Cache.IdentityTTL)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Worker.StaleAfter)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRIDGE_LEDGER__BASE_URL", "http://ledger.local")
	t.Setenv("BRIDGE_WORKER__ENABLED", "true")
	t.Setenv("BRIDGE_WORKER__INTERVAL", "30s")
	t.Setenv("BRIDGE_LOGGER__FORMAT", "json")

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "http://ledger.local", cfg.Ledger.BaseURL)
	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Worker.Interval)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRIDGE_SERVER__PUBLIC_BASE_URL", "")

	_, err := config.LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownLogFormat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BRIDGE_LOGGER__FORMAT", "xml")

	_, err := config.LoadConfig()

	assert.Error(t, err)
}

func TestDatabaseConfig_URLs(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "bridge",
		Password:        "secret",
		Name:            "bridge",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	}

	assert.Equal(t, "pgx5://bridge:secret@db:5432/bridge?sslmode=disable", cfg.MigrateURL())

	pgxCfg, err := cfg.PgxConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(10), pgxCfg.MaxConns)
	assert.Equal(t, int32(2), pgxCfg.MinConns)
	assert.Equal(t, "db", pgxCfg.ConnConfig.Host)
	assert.Equal(t, "stripe-bridge", pgxCfg.ConnConfig.RuntimeParams["application_name"])
}
