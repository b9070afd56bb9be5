/*
errors.go - Centralized error kinds for the rent engine

PURPOSE:
  Every error returned by a domain operation unwraps to exactly one of
  three kinds. Transport layers map the kind, never the concrete type:

    ErrNotFound      -> 404
    ErrValidation    -> 400
    ErrStateConflict -> 409

  Anything else is an infrastructure failure.

USAGE:
  Domain packages define structured errors that carry context and unwrap
  to a kind:

    func (e *NotEditableError) Unwrap() error { return generic.ErrStateConflict }

SEE ALSO:
  - ledger.go: Uses these errors
  - lease/errors.go: Lease-specific structured errors
  - api/handlers.go: Kind to HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input breaks a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrStateConflict is returned when the operation is valid in itself but
	// not in the current state of the data.
	ErrStateConflict = errors.New("state conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // e.g. "housing unit", "rent", "lease"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError is a state conflict without a more specific type.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrStateConflict }

// DuplicateStartError is returned when a subject already has an interval
// starting on the requested date.
type DuplicateStartError struct {
	SubjectID SubjectID
	Start     Date
}

func (e *DuplicateStartError) Error() string {
	return fmt.Sprintf("an interval already starts on %s for %s", e.Start, e.SubjectID)
}

func (e *DuplicateStartError) Unwrap() error { return ErrStateConflict }

// FromValidation converts an ozzo-validation result into a ValidationError.
// The first failing field, in name order, is reported.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return &ValidationError{Field: fields[0], Message: errs[fields[0]].Error()}
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &ValidationError{Message: err.Error()}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict returns true if the error is a state conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrStateConflict) }
