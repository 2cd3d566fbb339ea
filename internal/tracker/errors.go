package tracker

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned by toggle/update/delete for an unknown task id.
// Callers treat it as a no-op.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError reports input rejected before any state was touched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
