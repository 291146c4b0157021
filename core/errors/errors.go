// Package errors provides standardized error types and helpers for the Concord codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrTooDissimilar indicates the similarity guard rejected a text pair
	// before the full alignment was attempted.
	ErrTooDissimilar = errors.New("texts are too dissimilar")
	// ErrNoMatch indicates no counterpart was found for a hit
	ErrNoMatch = errors.New("no match")
	// ErrMalformedAlignment indicates alignment data that violates the
	// token/separator contract
	ErrMalformedAlignment = errors.New("malformed alignment")
	// ErrInvalidConfig indicates a workflow or option validation failure
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// DissimilarityError reports a failed similarity guard with the measured
// and required ratios.
type DissimilarityError struct {
	Measured float64 // similarity estimate of the two texts
	Required float64 // configured minimum ratio
}

func (e *DissimilarityError) Error() string {
	return fmt.Sprintf("texts are too dissimilar: estimate of similarity ratio (%d%%) < minimum ratio (%d%%)",
		int(e.Measured*100), int(e.Required*100))
}

func (e *DissimilarityError) Unwrap() error {
	return ErrTooDissimilar
}

// ConfigError represents a workflow/configuration validation error
type ConfigError struct {
	Field   string // Field that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfig
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "CSV", "XML", "snapshot")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "concordance", "hit")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// Helper functions for creating common errors

// NewDissimilarity creates a DissimilarityError
func NewDissimilarity(measured, required float64) *DissimilarityError {
	return &DissimilarityError{
		Measured: measured,
		Required: required,
	}
}

// NewConfig creates a ConfigError
func NewConfig(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
