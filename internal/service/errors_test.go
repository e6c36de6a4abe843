package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "history[0].role",
				Message: "must be one of system, user, assistant",
			},
			want: "validation error on field history[0].role: must be one of system, user, assistant",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	var err error = &ValidationError{Field: "history", Message: "empty"}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if errors.Is(err, ErrExternalService) {
		t.Error("ValidationError should not match ErrExternalService")
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.code) }

func TestWrapError(t *testing.T) {
	if got := WrapError(ErrExternalService, nil); got != nil {
		t.Errorf("WrapError(kind, nil) = %v, want nil", got)
	}

	cause := &statusError{code: 429}
	err := WrapError(ErrExternalService, cause)

	if err.Error() != "external service error: status 429" {
		t.Errorf("WrapError() = %q", err.Error())
	}
	if !errors.Is(err, ErrExternalService) {
		t.Error("WrapError() should match its kind")
	}
	var target *statusError
	if !errors.As(err, &target) || target.code != 429 {
		t.Error("WrapError() should keep the cause reachable with errors.As")
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Error("WrapError() should not match an unrelated sentinel")
	}
}
