package model

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrNotFound covers both a missing record and a record the caller does not own.
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage error")
	ErrIntegrity    = errors.New("integrity violation")
)

// ValidationError represents malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}

// StorageError wraps a failure of the underlying store. Err carries a stack trace.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err for operation op, attaching a stack if it has none.
func NewStorageError(op string, err error) *StorageError {
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	if _, ok := err.(stackTracer); !ok {
		err = pkgerrors.WithStack(err)
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IntegrityError reports a parent record that cannot be paired with a typed payload.
// It should never occur given the create-time invariant; seeing one means data corruption.
type IntegrityError struct {
	ItemID   string
	ItemType ItemType
	Reason   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on item %s (type %d): %s", e.ItemID, int16(e.ItemType), e.Reason)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }
