package service

import "errors"

// Sentinel kinds for service-level failures. Handlers translate these to
// HTTP statuses at the boundary.
var (
	ErrInvalidKey = errors.New("invalid api key")
	ErrForbidden  = errors.New("admin key required")
	ErrBadGuess   = errors.New("guess not allowed")
	ErrNotStarted = errors.New("service not started")
)
