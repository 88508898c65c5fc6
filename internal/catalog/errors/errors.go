package errors

import "errors"

var (
	ErrNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid service ID format")

	ErrDuplicateCode = errors.New("service code already exists")
)
