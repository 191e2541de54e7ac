package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation indicates a missing or malformed input field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStateTransition indicates an operation against a record whose
	// current status does not permit it.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrUpstream indicates a best-effort side channel (email, webhook) failed.
	// Never fatal to the primary operation.
	ErrUpstream = errors.New("upstream failure")
)

// Validationf wraps ErrValidation with a human-readable message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
