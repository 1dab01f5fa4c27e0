package appointments

import "errors"

var (
	// ErrNotFound indicates no appointment matched the lookup.
	ErrNotFound = errors.New("appointments: appointment not found")
	// ErrTimeSlotTaken indicates the doctor already has a non-cancelled
	// appointment overlapping the requested hour.
	ErrTimeSlotTaken = errors.New("appointments: time slot already taken")
	// ErrInvalidStatus indicates an unknown status string.
	ErrInvalidStatus = errors.New("appointments: invalid status")
)
