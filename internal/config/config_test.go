package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_API_URL", "")
	t.Setenv("GEOLOCATION_LAT", "")
	t.Setenv("GEOLOCATION_LNG", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, 8*time.Second, cfg.GeolocationTimeout)
	assert.True(t, cfg.GeolocationEnabled)
	assert.True(t, cfg.ProvinceGrouping)
	assert.True(t, cfg.FallbackSlots)
	assert.False(t, cfg.RequireProvider)
	assert.False(t, cfg.HasStaticPosition())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_API_URL", "https://api.example.com/")
	t.Setenv("SCHEDULER_API_TIMEOUT", "3s")
	t.Setenv("CREDENTIAL_STORE", " Redis ")
	t.Setenv("GEOLOCATION_LAT", "-26.2041")
	t.Setenv("GEOLOCATION_LNG", "28.0473")
	t.Setenv("PROVINCE_GROUPING", "false")
	t.Setenv("REQUIRE_ROOM", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, ,https://book.example.com")

	cfg := Load()

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "redis", cfg.CredentialStore)
	require.True(t, cfg.HasStaticPosition())
	assert.InDelta(t, -26.2041, *cfg.GeolocationLat, 1e-9)
	assert.InDelta(t, 28.0473, *cfg.GeolocationLng, 1e-9)
	assert.False(t, cfg.ProvinceGrouping)
	assert.True(t, cfg.RequireRoom)
	assert.Equal(t, []string{"http://localhost:3000", "https://book.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("GEOLOCATION_TIMEOUT", "soon")
	t.Setenv("GEOLOCATION_LAT", "north")
	t.Setenv("FALLBACK_SLOTS", "maybe")

	cfg := Load()

	assert.Equal(t, 8*time.Second, cfg.GeolocationTimeout)
	assert.Nil(t, cfg.GeolocationLat)
	assert.True(t, cfg.FallbackSlots)
}
