package errors

import "errors"

var (
	ErrNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid room ID format")

	// ErrVersionConflict is returned when the room's booking list changed
	// between the read and the conditional write.
	ErrVersionConflict = errors.New("room bookings changed concurrently")

	ErrHasBookings = errors.New("room still has bookings")
)
