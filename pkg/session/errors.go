package session

import "errors"

var (
	// ErrBusy is returned when a turn or reset is attempted while another
	// turn holds the single-flight slot. Callers decide whether to resubmit;
	// nothing is queued.
	ErrBusy = errors.New("another turn is in progress")

	// ErrInvalidInput is returned for empty or malformed messages, before
	// any state is touched.
	ErrInvalidInput = errors.New("message cannot be empty")
)
