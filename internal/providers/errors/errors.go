package errors

import "errors"

var (
	ErrNotFound = errors.New("provider not found")

	ErrInvalidID = errors.New("invalid provider ID format")

	ErrNameTaken = errors.New("provider name already in use")
)
