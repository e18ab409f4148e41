package agent

// EventType tags a single step in the agent's visible reasoning trace
type EventType string

const (
	// EventThought is a fragment of the agent's internal reasoning
	EventThought EventType = "thought"
	// EventAction describes a tool invocation about to happen
	EventAction EventType = "action"
	// EventObservation is the result returned by a tool invocation
	EventObservation EventType = "observation"
	// EventResponse is the agent's final answer
	EventResponse EventType = "response"
	// EventDone is the terminal success sentinel, always last, empty payload
	EventDone EventType = "done"
	// EventError is the terminal failure sentinel, payload is the cause
	EventError EventType = "error"
)

// StepEvent is one unit of the reasoning trace on the wire
type StepEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// IsTerminal reports whether the event ends a run
func (e StepEvent) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// Thought builds a thought event
func Thought(content string) StepEvent {
	return StepEvent{Type: EventThought, Content: content}
}

// Action builds an action event
func Action(content string) StepEvent {
	return StepEvent{Type: EventAction, Content: content}
}

// Observation builds an observation event
func Observation(content string) StepEvent {
	return StepEvent{Type: EventObservation, Content: content}
}

// Response builds a response event
func Response(content string) StepEvent {
	return StepEvent{Type: EventResponse, Content: content}
}

// Done builds the terminal success sentinel
func Done() StepEvent {
	return StepEvent{Type: EventDone}
}

// Error builds the terminal failure sentinel
func Error(reason string) StepEvent {
	return StepEvent{Type: EventError, Content: reason}
}
