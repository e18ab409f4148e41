package agent

import (
	"context"
	"fmt"
)

// Message roles understood by the providers
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation passed to the LLM
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation requested by the LLM. Input carries the
// free-text argument of the tool.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ToolSpec advertises a tool to the LLM
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChatRequest contains the request parameters for one LLM call
type ChatRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSpec
	Temperature  float64
	MaxTokens    int
}

// ChatResponse contains the LLM's reply for one call
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// LLMProvider is the boundary to a concrete LLM API
type LLMProvider interface {
	// Complete makes a single LLM API call
	Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// Name returns the provider name
	Name() string
}

// ProviderConfig selects and configures a provider backend
type ProviderConfig struct {
	Provider string // "openai", "openrouter", "anthropic"
	APIKey   string
	BaseURL  string // API base override, required for openrouter
}

// NewProvider creates an LLM provider from configuration
func NewProvider(cfg ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, ""), nil
	case "openrouter":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base url is required for openrouter")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
