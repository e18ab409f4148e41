package session

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AutoReset clears the conversation history on a cron schedule, e.g.
// "0 4 * * *" for a daily 04:00 reset. A reset attempt that collides with
// an active turn is skipped, never queued.
type AutoReset struct {
	executor *TurnExecutor
	cron     *cron.Cron
	schedule string
	logger   zerolog.Logger
}

// NewAutoReset creates a scheduled reset for the executor's session
func NewAutoReset(executor *TurnExecutor, schedule string, logger zerolog.Logger) (*AutoReset, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if schedule == "" {
		return nil, fmt.Errorf("schedule is required")
	}

	a := &AutoReset{
		executor: executor,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}

	if _, err := a.cron.AddFunc(schedule, a.reset); err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", schedule, err)
	}

	return a, nil
}

// Start begins the schedule
func (a *AutoReset) Start() {
	a.cron.Start()
	a.logger.Info().Str("schedule", a.schedule).Msg("Session auto-reset scheduled")
}

// Stop halts the schedule; a reset already in progress finishes
func (a *AutoReset) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
}

func (a *AutoReset) reset() {
	if err := a.executor.Reset(); err != nil {
		if errors.Is(err, ErrBusy) {
			a.logger.Debug().Msg("Scheduled reset skipped, turn in progress")
			return
		}
		a.logger.Error().Err(err).Msg("Scheduled reset failed")
		return
	}
	a.logger.Info().Msg("Scheduled session reset completed")
}
