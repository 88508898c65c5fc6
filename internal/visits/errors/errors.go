package errors

import "errors"

var (
	ErrNotFound = errors.New("visit not found")

	ErrInvalidID = errors.New("invalid visit ID format")
)
