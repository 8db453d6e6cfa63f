package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AURIOS_JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.WebSocket.MaxConnectionsPerUser)
	assert.Equal(t, 100, cfg.WebSocket.MaxConnectionsPerTenant)
	assert.Equal(t, 60, cfg.WebSocket.MessageRateLimit)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.WebSocket.IdleTimeout)
	assert.Equal(t, time.Hour, cfg.GetJWTDuration())
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("AURIOS_JWT_SECRET", testSecret)

	content := `
server:
  port: "9090"
websocket:
  max_connections_per_user: 2
  max_connections_per_tenant: 10
ai:
  model: llama3
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2, cfg.WebSocket.MaxConnectionsPerUser)
	assert.Equal(t, 10, cfg.WebSocket.MaxConnectionsPerTenant)
	assert.Equal(t, "llama3", cfg.AI.Model)
	// Untouched values keep defaults
	assert.Equal(t, 60, cfg.WebSocket.MessageRateLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AURIOS_JWT_SECRET", testSecret)
	t.Setenv("AURIOS_SERVER_PORT", "7070")
	t.Setenv("AURIOS_WEBSOCKET_MESSAGE_RATE_LIMIT", "10")
	t.Setenv("AURIOS_WEBSOCKET_IDLE_TIMEOUT", "5m")
	t.Setenv("AURIOS_AI_TEMPERATURE", "0.2")
	t.Setenv("AURIOS_LOG_IS_DEV", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 10, cfg.WebSocket.MessageRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.WebSocket.IdleTimeout)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 0.0001)
	assert.True(t, cfg.Logging.IsDev)
}

func TestValidate(t *testing.T) {
	t.Run("MissingSecret", func(t *testing.T) {
		cfg := getDefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("ShortSecret", func(t *testing.T) {
		cfg := getDefaultConfig()
		cfg.Auth.JWT.Secret = "short"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("TenantCapBelowUserCap", func(t *testing.T) {
		cfg := getDefaultConfig()
		cfg.Auth.JWT.Secret = testSecret
		cfg.WebSocket.MaxConnectionsPerTenant = 1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_connections_per_tenant")
	})

	t.Run("BadEnvValue", func(t *testing.T) {
		t.Setenv("AURIOS_JWT_SECRET", testSecret)
		t.Setenv("AURIOS_WEBSOCKET_MESSAGE_RATE_LIMIT", "not-a-number")
		_, err := Load("")
		require.Error(t, err)
	})
}
