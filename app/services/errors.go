package services

import "errors"

// Sentinel errors services return for the failures callers are expected to
// branch on. Controllers map them to HTTP statuses; everything else is a 500.
var (
	// ErrUnauthorized means the operation requires an authenticated caller
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the caller is authenticated but not allowed to act
	ErrForbidden = errors.New("operation not permitted")

	// ErrValidation means the input failed the typed form checks
	ErrValidation = errors.New("invalid input")

	// ErrConflict means the operation lost to the current lifecycle state,
	// e.g. approving on a match that is no longer recruiting
	ErrConflict = errors.New("conflicting state")

	// ErrLiveQueryClosed means the live query was closed or its stream failed
	ErrLiveQueryClosed = errors.New("live query closed")
)
