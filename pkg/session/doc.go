// Package session owns the single in-process conversation: the append-only
// history that seeds each reasoning run, and the turn executor that admits
// at most one turn at a time, relays its step events, and commits the
// outcome back into the history.
package session
