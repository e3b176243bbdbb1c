package errors

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ValidationError collects field-level problems found while checking options.
// It is returned wrapped in an *Error with ErrCodeInvalidOptions.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes one rejected field.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return strings.Join(parts, "; ")
}

// Add records a field problem.
func (v *ValidationError) Add(field, format string, args ...any) {
	v.Fields = append(v.Fields, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// Err returns nil when no field problems were recorded, otherwise an
// ErrCodeInvalidOptions error wrapping v.
func (v *ValidationError) Err(subject string) error {
	if len(v.Fields) == 0 {
		return nil
	}
	return Wrap(ErrCodeInvalidOptions, v, "invalid %s", subject)
}

// ValidateVertexID validates a vertex identifier taken from an input document.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateVertexID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "vertex id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidGraph, "vertex id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "vertex id %q contains control characters", id)
		}
	}

	return nil
}

// ValidateWeight rejects NaN and infinite edge weights.
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return New(ErrCodeInvalidGraph, "edge weight must be finite, got %v", w)
	}
	return nil
}

// ValidatePath validates a user supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
