package apperrors

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrNoActiveSession  = errors.New("no active session")
	ErrNotAuthenticated = errors.New("no authenticated user")
	ErrRemoteDisabled   = errors.New("remote sync is not configured")
)
