package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation names a task id that does not exist
	ErrNotFound = errors.New("task not found")

	// ErrInvalidID is returned when a task id cannot be parsed or is not positive
	ErrInvalidID = errors.New("invalid task ID")
)

// ValidationError describes malformed input for a single field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is or wraps a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
