// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/CLI responses by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a required field is missing or empty.
	ErrValidation = errors.New("validation failed")

	// ErrFormat indicates serialized quotes are malformed or have the wrong shape.
	ErrFormat = errors.New("invalid format")

	// ErrNetwork indicates a remote quote source could not be reached or answered badly.
	ErrNetwork = errors.New("network error")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// FormatError describes why a serialized quote list was rejected.
// Index is the offending array element, or -1 when the document itself is bad.
type FormatError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid format at element %d: %s", e.Index, e.Reason)
	}

	return "invalid format: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// NewFormatError creates a format error for the whole document.
func NewFormatError(reason string) error {
	return &FormatError{Index: -1, Reason: reason}
}

// NewElementFormatError creates a format error for a single array element.
func NewElementFormatError(index int, reason string) error {
	return &FormatError{Index: index, Reason: reason}
}

// NetworkError provides context for remote fetch failures.
type NetworkError struct {
	Source string
	Reason string
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("source %q unreachable: %s", e.Source, e.Reason)
	}

	return fmt.Sprintf("source %q unreachable", e.Source)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NetworkError) Unwrap() error {
	return ErrNetwork
}

// NewNetworkError creates a network error with context.
func NewNetworkError(source, reason string) error {
	return &NetworkError{Source: source, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFormat checks if an error is a format error.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
