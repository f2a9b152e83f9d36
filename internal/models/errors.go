package models

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports a rules file that is malformed or missing required fields.
type ConfigError struct {
	Path    string // Rules file path (optional)
	Field   string // Offending field, e.g. "exercise[1].test[0].test_name" (optional)
	Message string
	Err     error
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, msg string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: msg, Err: err}
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid rules")
	if e.Path != "" {
		sb.WriteString(fmt.Sprintf(" in %s", e.Path))
	}
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Field))
	}
	sb.WriteString(fmt.Sprintf(": %s", e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FileSystemError reports an unreadable directory or a solution that is not text.
type FileSystemError struct {
	Path    string
	Message string
	Err     error
}

// NewFileSystemError creates a FileSystemError for path.
func NewFileSystemError(path, msg string, err error) *FileSystemError {
	return &FileSystemError{Path: path, Message: msg, Err: err}
}

// Error implements the error interface for FileSystemError.
func (e *FileSystemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// RuntimeNotFoundError reports that no catalog entry matches the requested language,
// or that the catalog could not be fetched at all.
type RuntimeNotFoundError struct {
	Language string
	Err      error // Catalog failure, nil when the catalog simply has no match
}

// Error implements the error interface for RuntimeNotFoundError.
func (e *RuntimeNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("runtime %q not resolved: %v", e.Language, e.Err)
	}
	return fmt.Sprintf("runtime %q not found in catalog", e.Language)
}

// Unwrap returns the catalog failure, if any.
func (e *RuntimeNotFoundError) Unwrap() error {
	return e.Err
}

// ExerciseFileMissingError reports a declared exercise without a solution file.
type ExerciseFileMissingError struct {
	Exercise string
}

// Error implements the error interface for ExerciseFileMissingError.
func (e *ExerciseFileMissingError) Error() string {
	return fmt.Sprintf("no solution file for exercise %q", e.Exercise)
}

// TransportError reports a failed request to the execution service.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // Zero when the request never got a response
	Err        error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s %s: unexpected status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseFormatError reports a response body that does not match the expected schema.
type ResponseFormatError struct {
	URL  string
	Body string // Truncated body, for diagnostics
	Err  error
}

// Error implements the error interface for ResponseFormatError.
func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if the error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return err != nil && errors.As(err, &target)
}

// IsFileSystemError checks if the error is or wraps a FileSystemError.
func IsFileSystemError(err error) bool {
	var target *FileSystemError
	return err != nil && errors.As(err, &target)
}

// IsRuntimeNotFoundError checks if the error is or wraps a RuntimeNotFoundError.
func IsRuntimeNotFoundError(err error) bool {
	var target *RuntimeNotFoundError
	return err != nil && errors.As(err, &target)
}

// IsExerciseFileMissingError checks if the error is or wraps an ExerciseFileMissingError.
func IsExerciseFileMissingError(err error) bool {
	var target *ExerciseFileMissingError
	return err != nil && errors.As(err, &target)
}

// IsTransportError checks if the error is or wraps a TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return err != nil && errors.As(err, &target)
}

// IsResponseFormatError checks if the error is or wraps a ResponseFormatError.
func IsResponseFormatError(err error) bool {
	var target *ResponseFormatError
	return err != nil && errors.As(err, &target)
}
