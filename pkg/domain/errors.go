package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so transport layers can render it.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
)

// DomainError is a structured, caller-renderable error.
type DomainError struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError reports malformed or missing input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewConflictError reports a uniqueness or overlap violation. Optional ids name
// the conflicting records.
func NewConflictError(message string, conflictingIDs ...string) *DomainError {
	err := &DomainError{Kind: KindConflict, Message: message}
	if len(conflictingIDs) > 0 {
		err.Details = map[string]any{"conflicting_ids": conflictingIDs}
	}
	return err
}

// NewInvalidStateError reports a transition attempted from a state that does not permit it.
func NewInvalidStateError(current, attempted string) *DomainError {
	return &DomainError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, attempted),
		Details: map[string]any{"current": current, "attempted": attempted},
	}
}

// NewForbiddenError reports an actor lacking the privilege for an operation.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Message: message}
}

// KindOf extracts the ErrorKind of err, if it wraps a DomainError.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool { return isKind(err, KindInvalidState) }

// IsForbidden reports whether err is a forbidden error.
func IsForbidden(err error) bool { return isKind(err, KindForbidden) }
