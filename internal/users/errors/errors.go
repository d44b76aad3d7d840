package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")

	ErrEmailTaken = errors.New("email already registered")

	ErrPhoneTaken = errors.New("phone number already registered")

	ErrInvalidCredentials = errors.New("invalid email or password")
)

var ErrHasBookings = errors.New("user still has bookings")
