package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "restaurant_week", cfg.Database.Database)
	assert.Equal(t, 100, cfg.Geo.DefaultPageLimit)
	assert.Equal(t, "mock", cfg.Billing.Provider)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_NAME", "rw_test")
	t.Setenv("GEO_DEFAULT_PAGE_LIMIT", "25")
	t.Setenv("BILLING_PROVIDER", "http")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "rw_test", cfg.Database.Database)
	assert.Equal(t, 25, cfg.Geo.DefaultPageLimit)
	assert.Equal(t, "http", cfg.Billing.Provider)
	assert.True(t, cfg.OTEL.Enabled)
}

func TestConnectionStrings(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.Database.DatabaseDSN(), "dbname=restaurant_week")
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}
