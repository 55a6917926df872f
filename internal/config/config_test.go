package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c := Load()
	require.NotNil(t, c)

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, "https://test.api.amadeus.com", c.Amadeus.BaseURL)
	assert.Equal(t, "EUR", c.Amadeus.Currency)
	assert.Equal(t, 2, c.Amadeus.MaxRetries)
	assert.Equal(t, 3, c.Amadeus.ConfirmMaxCalls)
	assert.Equal(t, 10*time.Minute, c.Amadeus.ConfirmWindow)
	assert.Equal(t, "https://api.travelpayouts.com", c.Travelpayouts.BaseURL)
	assert.Equal(t, "sqlite", c.Cache.Backend)
	assert.Equal(t, 6*time.Hour, c.Cache.TTL)
	assert.Equal(t, defaultExploreDestinations, c.ExploreDestinations)
	assert.Equal(t, 3, c.ExploreMaxCalls)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AMADEUS_MAX_RETRIES", "5")
	t.Setenv("AMADEUS_TIMEOUT", "30s")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("EXPLORE_DESTINATIONS", "LIS, OPO,MAD")
	t.Setenv("TRAVELPAYOUTS_BACKOFF_FACTOR", "1.5")

	c := Load()

	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, 5, c.Amadeus.MaxRetries)
	assert.Equal(t, 30*time.Second, c.Amadeus.Timeout)
	assert.Equal(t, "redis", c.Cache.Backend)
	assert.Equal(t, []string{"LIS", "OPO", "MAD"}, c.ExploreDestinations)
	assert.Equal(t, 1.5, c.Travelpayouts.BackoffFactor)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AMADEUS_MAX_RETRIES", "not-a-number")
	t.Setenv("AMADEUS_TIMEOUT", "soon")

	c := Load()

	assert.Equal(t, 2, c.Amadeus.MaxRetries)
	assert.Equal(t, 15*time.Second, c.Amadeus.Timeout)
}
