// Package apperr defines the error types the service layer surfaces to
// the HTTP boundary: validation failures, broken references and
// storage failures.
package apperr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports malformed or missing input. Fields maps each
// offending field to a human-readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Validation builds a single-field ValidationError.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// FromValidator converts a go-playground validation result into a
// ValidationError with per-field reasons. Non-validator errors are
// reported under a generic body field.
func FromValidator(err error) *ValidationError {
	fields := make(map[string]string)
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["body"] = err.Error()
		return &ValidationError{Fields: fields}
	}
	for _, fe := range vErrs {
		fields[fe.Field()] = reasonFor(fe)
	}
	return &ValidationError{Fields: fields}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// ReferenceError reports a write that pointed at a row that does not
// exist, e.g. toggling a habit id with no habit behind it.
type ReferenceError struct {
	Entity string
	ID     string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Entity, e.ID)
}

// StorageError wraps any persistence failure that is not a validation
// or reference problem.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError, passing nil through.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
