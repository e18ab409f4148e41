package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Agent.Provider)
	assert.Equal(t, 60, cfg.Agent.TimeoutSeconds)
	assert.Equal(t, 12, cfg.Agent.MaxIterations)
	assert.NotEmpty(t, cfg.Agent.SystemPrompt)
}

func TestValidateInvalidPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid server port")

	cfg.Server.Port = 70000
	assert.ErrorContains(t, cfg.Validate(), "invalid server port")
}

func TestValidateUnsupportedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Provider = "cohere"
	assert.ErrorContains(t, cfg.Validate(), "unsupported agent provider")
}

func TestValidateOpenRouterNeedsBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Provider = "openrouter"
	assert.ErrorContains(t, cfg.Validate(), "base_url is required")

	cfg.Agent.BaseURL = "https://openrouter.ai/api/v1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Model = ""
	assert.ErrorContains(t, cfg.Validate(), "model is required")
}

func TestValidateTemperatureRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Temperature = 1.5
	assert.ErrorContains(t, cfg.Validate(), "temperature")

	cfg.Agent.Temperature = -0.1
	assert.ErrorContains(t, cfg.Validate(), "temperature")
}

func TestValidateTimeoutAndIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.TimeoutSeconds = 0
	assert.ErrorContains(t, cfg.Validate(), "timeout must be positive")

	cfg = DefaultConfig()
	cfg.Agent.MaxIterations = 0
	assert.ErrorContains(t, cfg.Validate(), "max iterations must be positive")
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Equal(t, "openai", cfg.Agent.Provider)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/config.yaml").Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9100
  rate_limit_per_minute: 10
agent:
  provider: anthropic
  api_key: sk-file
  model: claude-sonnet-4-0
  temperature: 0.3
  timeout_seconds: 30
  max_iterations: 6
session:
  reset:
    schedule: "0 4 * * *"
logging:
  level: debug
  pretty: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, "anthropic", cfg.Agent.Provider)
	assert.Equal(t, "sk-file", cfg.Agent.APIKey)
	assert.Equal(t, "claude-sonnet-4-0", cfg.Agent.Model)
	assert.InDelta(t, 0.3, cfg.Agent.Temperature, 0.001)
	assert.Equal(t, 30, cfg.Agent.TimeoutSeconds)
	assert.Equal(t, 6, cfg.Agent.MaxIterations)
	assert.Equal(t, "0 4 * * *", cfg.Session.Reset.Schedule)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Pretty)
}

func TestLoadInvalidFileValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
agent:
  provider: nope
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported agent provider")
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("TRAFFICSENSE_AGENT_API_KEY", "sk-env")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Agent.APIKey)
}
