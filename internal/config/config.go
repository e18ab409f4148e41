package config

import "fmt"

// Config is the service configuration
type Config struct {
	// Server holds the HTTP listener settings
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Agent configures the reasoning engine
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Session configures conversation session behavior
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Logging holds logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// AgentConfig configures the LLM-backed reasoning engine
type AgentConfig struct {
	Provider       string  `json:"provider" mapstructure:"provider"` // openai, openrouter, anthropic
	APIKey         string  `json:"api_key" mapstructure:"api_key"`
	BaseURL        string  `json:"base_url" mapstructure:"base_url"`
	Model          string  `json:"model" mapstructure:"model"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens      int     `json:"max_tokens" mapstructure:"max_tokens"`
	SystemPrompt   string  `json:"system_prompt" mapstructure:"system_prompt"`
	TimeoutSeconds int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxIterations  int     `json:"max_iterations" mapstructure:"max_iterations"`
}

// SessionConfig holds session behavior settings
type SessionConfig struct {
	Reset ResetConfig `json:"reset" mapstructure:"reset"`
}

// ResetConfig configures scheduled history resets. An empty schedule
// disables them; the schedule is a cron expression.
type ResetConfig struct {
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultSystemPrompt guides the agent as a traffic analysis assistant
const DefaultSystemPrompt = `You are an AI assisting humans with traffic simulation control, ` +
	`traffic and transportation decisions, and traffic analysis reports. ` +
	`Determine whether the human message is a simulation control command or a question before acting. ` +
	`Complete only the task explicitly expressed in the message and do not fabricate tool names or tool inputs. ` +
	`Use the least amount of tools possible and never call the same tool repeatedly. ` +
	`If no tool fits the task, answer from your own knowledge. ` +
	`When an observation contains tabular content, include it in markdown format in your final answer.`

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			RateLimitPerMinute: 100,
		},
		Agent: AgentConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Temperature:    0,
			MaxTokens:      4096,
			SystemPrompt:   DefaultSystemPrompt,
			TimeoutSeconds: 60,
			MaxIterations:  12,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Agent.Provider {
	case "openai", "openrouter", "anthropic":
	default:
		return fmt.Errorf("unsupported agent provider: %s", c.Agent.Provider)
	}
	if c.Agent.Provider == "openrouter" && c.Agent.BaseURL == "" {
		return fmt.Errorf("agent base_url is required for openrouter")
	}
	if c.Agent.Model == "" {
		return fmt.Errorf("agent model is required")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 1 {
		return fmt.Errorf("agent temperature must be between 0 and 1")
	}
	if c.Agent.TimeoutSeconds <= 0 {
		return fmt.Errorf("agent timeout must be positive")
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max iterations must be positive")
	}
	return nil
}
