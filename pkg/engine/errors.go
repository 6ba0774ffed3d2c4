package engine

import "errors"

var (
	// ErrFutureDate indicates a slip-up restart date or meeting time
	// after the engine's current (possibly time-traveled) now.
	// Rejected before any state mutation.
	ErrFutureDate = errors.New("date must not be in the future")

	// ErrInvalidDate indicates a date string that does not parse as
	// YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

	// ErrMissingUserID indicates input without a user identifier.
	ErrMissingUserID = errors.New("user id is required")
)
