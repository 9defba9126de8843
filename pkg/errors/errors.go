// Package errors provides structured error types for stackrecipe.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Descriptor errors are fatal at load time. A caller that receives one must
// not proceed with a partial configuration:
//   - MALFORMED_DESCRIPTOR: syntax or structure is invalid
//   - UNKNOWN_OPTION: a key, section, axis or generator is not in the schema
//   - DUPLICATE_REQUIREMENT: a package name would be pinned twice
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownOption, "unknown option %q in section %q", key, section)
//	if errors.Is(err, errors.ErrCodeUnknownOption) {
//	    // Handle schema error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedDescriptor, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Descriptor errors
	ErrCodeMalformedDescriptor  Code = "MALFORMED_DESCRIPTOR"
	ErrCodeUnknownOption        Code = "UNKNOWN_OPTION"
	ErrCodeDuplicateRequirement Code = "DUPLICATE_REQUIREMENT"
	ErrCodeDuplicateRecipe      Code = "DUPLICATE_RECIPE"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPlatform Code = "INVALID_PLATFORM"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Workspace errors
	ErrCodeDependencyCycle Code = "DEPENDENCY_CYCLE"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeRecipeNotFound Code = "RECIPE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsDescriptorError reports whether err was raised while loading or
// evaluating a descriptor. These errors are the author's to fix.
func IsDescriptorError(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedDescriptor, ErrCodeUnknownOption,
		ErrCodeDuplicateRequirement, ErrCodeDuplicateRecipe,
		ErrCodeInvalidPlatform, ErrCodeDependencyCycle:
		return true
	}
	return false
}
