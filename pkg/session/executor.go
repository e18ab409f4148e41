package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lyuef/TrafficSenseAgent/internal/metrics"
	"github.com/lyuef/TrafficSenseAgent/pkg/agent"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Engine is the reasoning engine boundary: a pure function of (history
// snapshot, new message) returning a finite, non-restartable sequence of
// step events with exactly one terminal event, always last.
type Engine interface {
	Run(ctx context.Context, history []agent.Message, message string) <-chan agent.StepEvent
}

// State is the executor's lifecycle state
type State string

const (
	// StateIdle means the slot is free and reset is allowed
	StateIdle State = "idle"
	// StateRunning means a turn holds the slot and is producing events
	StateRunning State = "running"
	// StateCompleting means a finished turn is being committed to history
	StateCompleting State = "completing"
	// StateFailed means the turn ended in a terminal error; history is untouched
	StateFailed State = "failed"
)

// TurnExecutor admits at most one turn at a time, drives the engine, and
// updates the conversation history on completion. A second submission while
// a turn is active fails immediately with ErrBusy; nothing is queued.
type TurnExecutor struct {
	engine  Engine
	history *History
	logger  zerolog.Logger

	mu         sync.Mutex
	state      State
	activeTurn string
}

// NewTurnExecutor creates a turn executor over the given engine and history
func NewTurnExecutor(engine Engine, history *History, logger zerolog.Logger) (*TurnExecutor, error) {
	metrics.EnsureRegistered()

	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history is required")
	}

	return &TurnExecutor{
		engine:  engine,
		history: history,
		logger:  logger,
		state:   StateIdle,
	}, nil
}

// TurnHandle is the consumer side of one running turn
type TurnHandle struct {
	id         string
	events     chan agent.StepEvent
	detach     chan struct{}
	detachOnce sync.Once
	done       chan struct{}
}

// ID returns the turn identifier occupying the slot
func (h *TurnHandle) ID() string {
	return h.id
}

// Events returns the turn's step event stream. The channel carries events
// in emission order and is closed after the terminal event.
func (h *TurnHandle) Events() <-chan agent.StepEvent {
	return h.events
}

// Detach releases the consumer without stopping the turn. The run continues
// to completion and still updates history; undelivered events are discarded.
func (h *TurnHandle) Detach() {
	h.detachOnce.Do(func() {
		close(h.detach)
	})
}

// Done is closed once the turn has fully committed: history updated (or
// deliberately left untouched on failure) and the slot released.
func (h *TurnHandle) Done() <-chan struct{} {
	return h.done
}

// Submit starts a new turn for the given user message. It returns
// ErrInvalidInput for empty messages and ErrBusy when a turn is already
// active; neither touches any state.
func (e *TurnExecutor) Submit(message string) (*TurnHandle, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrInvalidInput
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate turn id: %w", err)
	}

	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		metrics.RecordBusyRejection()
		return nil, ErrBusy
	}
	e.state = StateRunning
	e.activeTurn = id
	e.mu.Unlock()

	snapshot := e.history.Snapshot()

	h := &TurnHandle{
		id:     id,
		events: make(chan agent.StepEvent),
		detach: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go e.run(h, snapshot, message)

	return h, nil
}

// State returns the executor's current state
func (e *TurnExecutor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// History returns the conversation history owned by this executor
func (e *TurnExecutor) History() *History {
	return e.history
}

// Reset clears the conversation history. It fails with ErrBusy while a
// turn is active and is idempotent on an empty history.
func (e *TurnExecutor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		metrics.RecordBusyRejection()
		return ErrBusy
	}

	e.history.Clear()
	metrics.RecordReset()
	e.logger.Info().Msg("Conversation history cleared")
	return nil
}

// run drives one turn to completion. It owns the slot: every exit path
// releases it exactly once. The engine runs under a background context so a
// detached consumer never cancels the turn.
func (e *TurnExecutor) run(h *TurnHandle, snapshot []Turn, message string) {
	start := time.Now()
	logger := e.logger.With().Str("turn_id", h.id).Logger()

	events := e.engine.Run(context.Background(), toMessages(snapshot), message)

	var (
		response    string
		sawResponse bool
		lastPayload string
		failReason  string
		failed      bool
	)

	for ev := range events {
		metrics.RecordStepEvent(string(ev.Type))

		switch ev.Type {
		case agent.EventResponse:
			response = ev.Content
			sawResponse = true
		case agent.EventError:
			failed = true
			failReason = ev.Content
		case agent.EventDone:
		default:
			lastPayload = ev.Content
		}

		select {
		case h.events <- ev:
		case <-h.detach:
		}
	}
	close(h.events)

	if failed {
		e.setState(StateFailed)
		logger.Warn().
			Str("reason", failReason).
			Dur("duration", time.Since(start)).
			Msg("Turn failed, history unchanged")
		metrics.RecordTurn("error", time.Since(start))
	} else {
		e.setState(StateCompleting)
		e.commit(logger, message, response, sawResponse, lastPayload)
		metrics.RecordTurn("success", time.Since(start))
		logger.Info().
			Dur("duration", time.Since(start)).
			Int("history_turns", e.history.Len()).
			Msg("Turn completed")
	}

	e.mu.Lock()
	e.state = StateIdle
	e.activeTurn = ""
	e.mu.Unlock()

	close(h.done)
}

// commit appends the finished turn to history. When the engine omitted an
// explicit response event, the last non-terminal payload stands in for the
// agent's answer; a fully silent run records the user message alone.
func (e *TurnExecutor) commit(logger zerolog.Logger, message, response string, sawResponse bool, lastPayload string) {
	if err := e.history.Append(Turn{Role: RoleUser, Content: message}); err != nil {
		logger.Error().Err(err).Msg("Failed to append user turn")
		return
	}

	final := response
	if !sawResponse {
		final = lastPayload
	}
	if final == "" {
		return
	}

	if err := e.history.Append(Turn{Role: RoleAgent, Content: final}); err != nil {
		logger.Error().Err(err).Msg("Failed to append agent turn")
	}
}

func (e *TurnExecutor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// toMessages converts history turns into the engine's message shape
func toMessages(turns []Turn) []agent.Message {
	messages := make([]agent.Message, 0, len(turns))
	for _, t := range turns {
		role := agent.RoleUser
		if t.Role == RoleAgent {
			role = agent.RoleAssistant
		}
		messages = append(messages, agent.Message{Role: role, Content: t.Content})
	}
	return messages
}
