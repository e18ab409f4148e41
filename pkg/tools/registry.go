package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler is the function signature for tool execution. Every tool takes a
// single free-text input and returns a free-text observation.
type Handler func(ctx context.Context, input string) (string, error)

// Definition describes a tool's metadata and handler
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Handler     Handler `json:"-"`
}

// Registry manages the tools available to the reasoning engine
type Registry struct {
	tools map[string]*Definition
	mu    sync.RWMutex
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Definition),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler is required for %s", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}

	r.tools[def.Name] = &def

	log.Debug().Str("tool", def.Name).Msg("Tool registered")
	return nil
}

// Get retrieves a tool by name, or nil if not registered
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all registered tools sorted by name
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, def := range r.tools {
		defs = append(defs, *def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a registered tool by name
func (r *Registry) Execute(ctx context.Context, name string, input string) (string, error) {
	def := r.Get(name)
	if def == nil {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	output, err := def.Handler(ctx, input)
	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("Tool execution failed")
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}

	return output, nil
}
