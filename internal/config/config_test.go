package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Predictor.URL)
	assert.Equal(t, 10*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, uint32(5), cfg.Predictor.BreakerFailures)
	assert.Equal(t, 24*time.Hour, cfg.Redis.GeocodeTTL)
	assert.Equal(t, 10*time.Second, cfg.Maps.Timeout)
	assert.Equal(t, "farecast.quotes", cfg.NATS.Subject)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Empty(t, cfg.DB.DSN)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FARECAST_APP_ENV", "production")
	t.Setenv("FARECAST_HTTP_ADDR", ":9090")
	t.Setenv("FARECAST_PREDICTOR_URL", "http://predictor:8000")
	t.Setenv("FARECAST_PREDICTOR_TIMEOUT", "3s")
	t.Setenv("FARECAST_REDIS_ADDR", "redis:6379")
	t.Setenv("FARECAST_MAPS_GOOGLE_API_KEY", "key")
	t.Setenv("FARECAST_AI_GEMINI_API_KEY", "gem")
	t.Setenv("FARECAST_SESSION_IDLE_TTL", "5m")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "http://predictor:8000", cfg.Predictor.URL)
	assert.Equal(t, 3*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "key", cfg.Maps.GoogleAPIKey)
	assert.Equal(t, "gem", cfg.AI.GeminiKey)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad env", "FARECAST_APP_ENV", "staging"},
		{"bad level", "FARECAST_LOG_LEVEL", "loud"},
		{"bad url", "FARECAST_PREDICTOR_URL", "not a url"},
		{"bad duration", "FARECAST_PREDICTOR_TIMEOUT", "soon"},
		{"zero ttl", "FARECAST_SESSION_IDLE_TTL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FARECAST_NATS_URL=nats://localhost:4222\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FARECAST_NATS_URL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}
