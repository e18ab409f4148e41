package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lyuef/TrafficSenseAgent/pkg/tools"
	"github.com/rs/zerolog"
)

const (
	defaultMaxIterations = 12
	defaultTimeout       = 60 * time.Second
	observationLimit     = 200
)

// Runner drives the reasoning loop against an LLM provider. Each Run yields
// a finite, non-restartable sequence of step events over an unbuffered
// channel: the producer does not advance past a step until the consumer has
// accepted the previous event.
type Runner struct {
	provider      LLMProvider
	registry      *tools.Registry
	logger        zerolog.Logger
	model         string
	systemPrompt  string
	temperature   float64
	maxTokens     int
	maxIterations int
	timeout       time.Duration
}

// Config holds runner configuration
type Config struct {
	Provider      LLMProvider
	Tools         *tools.Registry
	Logger        zerolog.Logger
	Model         string
	SystemPrompt  string
	Temperature   float64
	MaxTokens     int
	MaxIterations int
	Timeout       time.Duration
}

// NewRunner creates a new agent runner
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Runner{
		provider:      cfg.Provider,
		registry:      cfg.Tools,
		logger:        cfg.Logger,
		model:         cfg.Model,
		systemPrompt:  cfg.SystemPrompt,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		maxIterations: cfg.MaxIterations,
		timeout:       cfg.Timeout,
	}, nil
}

// Run starts a reasoning run for one user message seeded with the prior
// conversation. The returned channel is closed after exactly one terminal
// event (done or error). Engine failures and timeouts never escape as
// panics or errors: they arrive as a terminal error event.
func (r *Runner) Run(ctx context.Context, history []Message, message string) <-chan StepEvent {
	events := make(chan StepEvent)

	go func() {
		defer close(events)

		runCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		r.execute(runCtx, history, message, events)
	}()

	return events
}

func (r *Runner) execute(ctx context.Context, history []Message, message string, events chan<- StepEvent) {
	start := time.Now()

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: message})

	specs := r.toolSpecs()

	for iteration := 0; iteration < r.maxIterations; iteration++ {
		response, err := r.provider.Complete(ctx, ChatRequest{
			Model:        r.model,
			SystemPrompt: r.systemPrompt,
			Messages:     messages,
			Tools:        specs,
			Temperature:  r.temperature,
			MaxTokens:    r.maxTokens,
		})
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("provider", r.provider.Name()).
				Int("iteration", iteration).
				Msg("LLM call failed")
			events <- Error(r.describeFailure(ctx, err))
			return
		}

		// No tool calls means the run has reached its final answer
		if len(response.ToolCalls) == 0 {
			if response.Content != "" {
				events <- Response(response.Content)
			}
			events <- Done()
			r.logger.Debug().
				Dur("duration", time.Since(start)).
				Int("iterations", iteration+1).
				Msg("Reasoning run completed")
			return
		}

		// Reasoning text accompanying tool calls is the agent thinking aloud
		if response.Content != "" {
			events <- Thought(response.Content)
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		for _, call := range response.ToolCalls {
			events <- Action(describeCall(call))

			output, err := r.registry.Execute(ctx, call.Name, call.Input)
			if err != nil {
				// Tool failures are fed back to the model, not fatal
				output = err.Error()
			}

			events <- Observation(truncate(output, observationLimit))

			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	events <- Error(fmt.Sprintf("maximum reasoning iterations (%d) exceeded", r.maxIterations))
}

// describeFailure turns an engine failure into a human-readable cause
func (r *Runner) describeFailure(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("reasoning engine timed out after %s", r.timeout)
	}
	return fmt.Sprintf("reasoning engine failed: %v", err)
}

func (r *Runner) toolSpecs() []ToolSpec {
	defs := r.registry.List()
	specs := make([]ToolSpec, 0, len(defs))
	for _, def := range defs {
		specs = append(specs, ToolSpec{Name: def.Name, Description: def.Description})
	}
	return specs
}

func describeCall(call ToolCall) string {
	if call.Input == "" {
		return call.Name
	}
	return fmt.Sprintf("%s: %s", call.Name, call.Input)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
