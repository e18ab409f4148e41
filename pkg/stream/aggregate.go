package stream

import (
	"strings"
	"time"

	"github.com/lyuef/TrafficSenseAgent/pkg/agent"
)

// Turn result statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TurnResult is the consolidated outcome of one fully-drained run
type TurnResult struct {
	Response  string    `json:"response"`
	Thoughts  string    `json:"thoughts"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Aggregate drains a run's event sequence and folds it into a TurnResult.
// It blocks until the terminal event arrives: the response is the
// response-tagged payload, and the thoughts trace is the ordered
// concatenation of every thought, action, and observation payload.
func Aggregate(events <-chan agent.StepEvent) TurnResult {
	var thoughts []string
	result := TurnResult{Status: StatusSuccess}

	for ev := range events {
		switch ev.Type {
		case agent.EventThought, agent.EventAction, agent.EventObservation:
			if ev.Content != "" {
				thoughts = append(thoughts, ev.Content)
			}
		case agent.EventResponse:
			result.Response = ev.Content
		case agent.EventError:
			result.Status = StatusError
			result.Error = ev.Content
		case agent.EventDone:
		}
	}

	result.Thoughts = strings.Join(thoughts, " ")
	result.Timestamp = time.Now()
	return result
}
