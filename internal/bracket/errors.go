package bracket

import "errors"

var (
	// ErrValidation is returned for malformed input: negative or non-integer
	// scores, empty team names, invalid slots and duplicate teams.
	ErrValidation = errors.New("validation failed")

	// ErrState is returned when an operation is not allowed in the current
	// state of a bracket, e.g. scoring a bracket that is not playable.
	ErrState = errors.New("invalid bracket state")

	// ErrAccessViolation is returned when a derived or read-only field is
	// assigned directly.
	ErrAccessViolation = errors.New("access violation")

	ErrNotFound = errors.New("not found")
)
