package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment matches the given ID.
	ErrNotFound = errors.New("no appointment found with that ID")

	// ErrInvalidState is returned when the operation is not valid for the
	// appointment's current status, e.g. cancelling a cancelled appointment.
	ErrInvalidState = errors.New("appointment is not in a valid state for this change")

	// ErrConflict is returned when the requested (date, provider, time) slot
	// is already held by a scheduled appointment.
	ErrConflict = errors.New("that time slot is no longer available")
)
