package session

import "errors"

var (
	// ErrNotFound is returned for unknown or already ended sessions.
	ErrNotFound = errors.New("session: not found")
	// ErrInvalidInput is returned for malformed requests such as an empty user ID.
	ErrInvalidInput = errors.New("session: invalid input")
)
