package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrDestinationNotFound    = errors.New("destination not found")
	ErrDatesUnavailable       = errors.New("destination is not available for the selected dates")
	ErrCapacityExceeded       = errors.New("number of guests exceeds destination capacity")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrBookingNotCancellable  = errors.New("booking cannot be cancelled")
	ErrReviewNotAllowed       = errors.New("only completed bookings can be reviewed")
	ErrReviewAlreadyExists    = errors.New("booking has already been reviewed")
	ErrValidationFailed       = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrAccessDenied           = errors.New("access denied")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrBookingInProgress      = errors.New("another booking for this destination is in progress")
)

// ValidationError collects field-level problems. It matches
// ErrValidationFailed under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Err returns nil when no field was reported.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// FieldError is a shorthand for a single-field validation failure.
func FieldError(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}
