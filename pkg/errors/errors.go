package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrNotFound indicates a requested resource was not found
	// or does not belong to the caller
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates the caller is not a participant
	// in the entity being mutated
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState indicates a transition is illegal from the
	// entity's current status
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicateRequest indicates an active mentoring request already
	// exists for the mentor/mentee pair
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrRelationshipRequired indicates a mentee attempted to book a
	// session without an active relationship with the mentor
	ErrRelationshipRequired = errors.New("relationship required")

	// ErrSchedulingConflict indicates the candidate interval overlaps an
	// existing active session for one of the participants
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates a persistence or internal failure; always a
	// hard stop, never coerced into an assumed outcome
	ErrInternal = errors.New("internal error")
)

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// AccessDeniedError creates an access denied error with context
func AccessDeniedError(reason string) error {
	if reason != "" {
		return fmt.Errorf("%s: %w", reason, ErrAccessDenied)
	}
	return ErrAccessDenied
}

// InvalidStateError creates an invalid state error describing the rejected transition
func InvalidStateError(entity, from, to string) error {
	return fmt.Errorf("%s cannot move from '%s' to '%s': %w", entity, from, to, ErrInvalidState)
}

// InvalidInputError creates an invalid input error with context
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
