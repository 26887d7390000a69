package errors

import "errors"

var (
	ErrNotFound = errors.New("journey not found")

	ErrInvalidID = errors.New("invalid journey ID format")

	ErrGuideConflict = errors.New("guide already assigned on this date")
)
