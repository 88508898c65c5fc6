package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrPaid is returned when a write is conditioned on the booking still
	// being unpaid.
	ErrPaid = errors.New("booking already paid")

	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrVisitAlreadySpawned = errors.New("visit already created for booking")
)
