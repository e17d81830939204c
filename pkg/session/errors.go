package session

import "errors"

var (
	// ErrNotStarted is returned by Stop when no session is active.
	ErrNotStarted = errors.New("session: stop called before start")

	// ErrNotActive is returned when recording while no session is active.
	ErrNotActive = errors.New("session: no active session")

	// ErrAlreadyActive is returned by Start while a session is running.
	ErrAlreadyActive = errors.New("session: already active")
)
