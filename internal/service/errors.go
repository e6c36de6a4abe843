package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingMode is returned when a request carries neither products nor history.
	ErrMissingMode = errors.New("missing products or history")
	// ErrNotConfigured is returned when the completion credential is absent.
	ErrNotConfigured = errors.New("completion credential not configured")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError tags err with a sentinel kind so callers can match both with errors.Is and errors.As.
// It returns nil when err is nil.
func WrapError(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
