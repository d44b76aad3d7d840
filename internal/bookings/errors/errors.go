package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateConfirmationCode = errors.New("confirmation code already in use")

	ErrRoomLocked = errors.New("room is locked by another booking request")

	ErrLockNotHeld = errors.New("room lock is not held by this owner")
)
