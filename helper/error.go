package helper

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Error wraps an error with the step that produced it.
type Error struct {
	Original error
	Trace    string
}

// NewError wraps err with the name of the failing step.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Original: err,
		Trace:    trace,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Trace, e.Original)
}

func (e *Error) Unwrap() error {
	return e.Original
}

// ErrNotFound is returned by update and delete operations that match no row.
// Lookups return a nil result instead.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ConflictError reports a uniqueness or check constraint violation.
type ConflictError struct {
	Field      string
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s (constraint %s)", e.Field, e.Constraint)
}

// constraintFields maps named constraints to the API field they guard.
var constraintFields = map[string]string{
	"fields_name_key":                "name",
	"fields_slug_key":                "slug",
	"figures_name_check":             "name",
	"figures_slug_key":               "slug",
	"figures_external_id_key":        "externalId",
	"figures_lifespan_check":         "normalizedDeathYear",
	"figure_fields_figure_id_fkey":   "figureId",
	"figure_fields_field_id_fkey":    "fieldIds",
	"timeline_events_title_check":    "title",
	"timeline_events_category_check": "category",
	"influences_pair_key":            "influenced",
	"influences_no_self_check":       "influenced",
	"influences_influencer_id_fkey":  "influencer",
	"influences_influenced_id_fkey":  "influenced",
}

// TranslateStorageError converts PostgreSQL constraint violations into
// ConflictError or ValidationError. Other errors are returned unchanged.
func TranslateStorageError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	field := constraintFields[pqErr.Constraint]
	if field == "" {
		field = pqErr.Column
	}

	switch pqErr.Code {
	case "23505", "23514":
		return &ConflictError{Field: field, Constraint: pqErr.Constraint}
	case "23503":
		return NewValidationError(field, "referenced record does not exist")
	case "23502":
		return NewValidationError(pqErr.Column, "must not be null")
	case "22P02", "22003", "22007", "22008":
		return NewValidationError(field, "%s", pqErr.Message)
	default:
		return err
	}
}
