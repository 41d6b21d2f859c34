package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced interview, segment or
	// dataset does not exist for an operation that requires it.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when the underlying store or index
	// is unreachable. Callers are expected to retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError indicates a malformed record, rejected before any
// storage mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid segment field %q: %s", e.Field, e.Reason)
}

// InvalidQueryError indicates a malformed search request, rejected before
// index access.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidQuery reports whether err is an InvalidQueryError.
func IsInvalidQuery(err error) bool {
	var qe *InvalidQueryError
	return errors.As(err, &qe)
}
