package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.True(t, cfg.Store.Seed)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, DefaultServiceAreaCities, cfg.Booking.ServiceAreaCities)
	assert.Equal(t, 3, cfg.Booking.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.Booking.RateLimitWindow)
	assert.Equal(t, "GW", cfg.Booking.TrackingIDPrefix)
	assert.Equal(t, 25.0, cfg.Search.DefaultRadiusKm)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("SERVICE_AREA_CITIES", " delhi , noida ,,")
	t.Setenv("LEAD_RATE_LIMIT_MAX", "5")
	t.Setenv("LEAD_RATE_LIMIT_WINDOW", "30m")
	t.Setenv("SEARCH_DEFAULT_RADIUS_KM", "12.5")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.False(t, cfg.Store.Seed, "seeding defaults off for postgres")
	assert.Equal(t, []string{"delhi", "noida"}, cfg.Booking.ServiceAreaCities)
	assert.Equal(t, 5, cfg.Booking.RateLimitMax)
	assert.Equal(t, 30*time.Minute, cfg.Booking.RateLimitWindow)
	assert.Equal(t, 12.5, cfg.Search.DefaultRadiusKm)
	assert.True(t, cfg.Redis.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("LEAD_RATE_LIMIT_MAX", "many")
	t.Setenv("SEARCH_DEFAULT_RADIUS_KM", "far")
	t.Setenv("SERVICE_AREA_CITIES", " , ")

	cfg := Load()

	assert.Equal(t, 3, cfg.Booking.RateLimitMax)
	assert.Equal(t, 25.0, cfg.Search.DefaultRadiusKm)
	assert.Equal(t, DefaultServiceAreaCities, cfg.Booking.ServiceAreaCities)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }},
		{"empty area", func(c *Config) { c.Booking.ServiceAreaCities = nil }},
		{"zero radius", func(c *Config) { c.Search.DefaultRadiusKm = 0 }},
		{"max below default", func(c *Config) { c.Search.MaxRadiusKm = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
