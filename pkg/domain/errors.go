package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Handlers map these onto HTTP status codes; services
// and repositories wrap them with context via the constructors below.
var (
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid_state")
	ErrInvalidRange = errors.New("invalid_range")
	ErrSlotConflict = errors.New("slot_conflict")
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTransient    = errors.New("transient")
)

// DomainError carries a machine-readable kind plus a human-readable message.
type DomainError struct {
	Err     error
	Message string
	Details map[string]string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Details: map[string]string{"entity": entity, "id": id},
	}
}

// NewConflictError reports a concurrent-modification or uniqueness conflict.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewInvalidStateError reports a forbidden state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]string{"from": from, "to": to},
	}
}

// NewInvalidRangeError reports a malformed time range.
func NewInvalidRangeError(message string) *DomainError {
	return &DomainError{Err: ErrInvalidRange, Message: message}
}

// NewSlotConflictError reports an overlap with an existing booking or blocked
// slot. kind is "booking" or "blocked_slot"; id identifies the colliding entry.
func NewSlotConflictError(kind, id string) *DomainError {
	return &DomainError{
		Err:     ErrSlotConflict,
		Message: fmt.Sprintf("time range overlaps with %s %s", kind, id),
		Details: map[string]string{"conflicting_kind": kind, "conflicting_id": id},
	}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: message}
}

// NewForbiddenError reports an actor lacking the required role or ownership.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Err: ErrUnauthorized, Message: message}
}

// NewTransientError wraps a storage-level contention failure that the caller
// may safely retry from scratch.
func NewTransientError(cause error) *DomainError {
	return &DomainError{Err: ErrTransient, Message: cause.Error()}
}
