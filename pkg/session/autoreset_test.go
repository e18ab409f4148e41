package session

import (
	"testing"

	"github.com/lyuef/TrafficSenseAgent/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAutoReset(t *testing.T) {
	executor, err := NewTurnExecutor(&scriptedEngine{}, NewHistory(), testLogger())
	require.NoError(t, err)

	a, err := NewAutoReset(executor, "0 4 * * *", testLogger())
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestNewAutoResetRequiredDependencies(t *testing.T) {
	executor, err := NewTurnExecutor(&scriptedEngine{}, NewHistory(), testLogger())
	require.NoError(t, err)

	_, err = NewAutoReset(nil, "0 4 * * *", testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "executor is required")

	_, err = NewAutoReset(executor, "", testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schedule is required")
}

func TestNewAutoResetInvalidSchedule(t *testing.T) {
	executor, err := NewTurnExecutor(&scriptedEngine{}, NewHistory(), testLogger())
	require.NoError(t, err)

	_, err = NewAutoReset(executor, "not a cron expression", testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reset schedule")
}

func TestAutoResetClearsHistory(t *testing.T) {
	executor, err := NewTurnExecutor(&scriptedEngine{}, NewHistory(), testLogger())
	require.NoError(t, err)
	require.NoError(t, executor.History().Append(Turn{Role: RoleUser, Content: "hello"}))

	a, err := NewAutoReset(executor, "0 4 * * *", testLogger())
	require.NoError(t, err)

	a.reset()
	assert.Equal(t, 0, executor.History().Len())
}

func TestAutoResetSkipsWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	engine := &scriptedEngine{
		events: []agent.StepEvent{agent.Done()},
		gate:   gate,
	}
	history := NewHistory()
	require.NoError(t, history.Append(Turn{Role: RoleUser, Content: "hello"}))

	executor, err := NewTurnExecutor(engine, history, testLogger())
	require.NoError(t, err)

	h, err := executor.Submit("question")
	require.NoError(t, err)

	a, err := NewAutoReset(executor, "0 4 * * *", testLogger())
	require.NoError(t, err)

	// Collides with the active turn: skipped, history untouched
	a.reset()
	assert.Equal(t, 1, history.Len())

	close(gate)
	collect(t, h)
	waitDone(t, h)
}
