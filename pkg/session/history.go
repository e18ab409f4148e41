package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/lyuef/TrafficSenseAgent/internal/metrics"
)

// Role identifies the author of a turn
type Role string

const (
	// RoleUser is a message sent by the human
	RoleUser Role = "user"
	// RoleAgent is the agent's final answer to a message
	RoleAgent Role = "agent"
)

// Turn is one entry of the conversation log
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the append-only in-memory conversation log. Entries are never
// reordered or individually removed; the log only grows through completed
// turns or shrinks to empty through Clear.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory creates an empty conversation history
func NewHistory() *History {
	metrics.EnsureRegistered()
	return &History{}
}

// Append adds a turn to the end of the log
func (h *History) Append(t Turn) error {
	if t.Content == "" {
		return fmt.Errorf("turn content cannot be empty")
	}
	if t.Role != RoleUser && t.Role != RoleAgent {
		return fmt.Errorf("invalid turn role: %q", t.Role)
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	h.mu.Lock()
	h.turns = append(h.turns, t)
	length := len(h.turns)
	h.mu.Unlock()

	metrics.SetHistoryTurns(length)
	return nil
}

// Snapshot returns an ordered copy of the log, safe to read while a turn
// is in flight
func (h *History) Snapshot() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	turns := make([]Turn, len(h.turns))
	copy(turns, h.turns)
	return turns
}

// Len returns the current number of turns
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Clear empties the log wholesale
func (h *History) Clear() {
	h.mu.Lock()
	h.turns = nil
	h.mu.Unlock()

	metrics.SetHistoryTurns(0)
}
