package entities

import "errors"

var (
	// Validation errors: the request itself is malformed.
	ErrNoSeatsRequested = errors.New("no seats requested")
	ErrTooManySeats     = errors.New("too many seats in one request")
	ErrDuplicateSeats   = errors.New("duplicate seat ids in request")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrForbidden means the caller does not own the booking.
	ErrForbidden = errors.New("booking belongs to another user")

	// Conflict errors: expected under load, recoverable by client retry.
	ErrSeatNotAvailable = errors.New("seat is not available")
	ErrSeatConflict     = errors.New("seat status changed concurrently")
	ErrBookingConflict  = errors.New("booking modified concurrently")

	ErrSeatLimitExceeded = errors.New("seat limit for this game exceeded")

	ErrBookingExpired = errors.New("booking hold has expired")
	ErrInvalidState   = errors.New("operation not allowed in current state")

	// ErrLockUnavailable covers both lock contention and an unreachable
	// lock backend; callers should retry later.
	ErrLockUnavailable = errors.New("could not acquire seat locks")
)
