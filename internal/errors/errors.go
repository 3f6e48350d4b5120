// Package errors provides structured error types for coursegrid.
//
// Two error kinds are part of the public contract of the content layer:
// ModuleMissingError, returned when no content type is registered for a
// category and no default factory was supplied, and NotImplementedError,
// returned by abstract operations (XML import/export, HTML rendering) that
// concrete content types must override. Everything else is wrapped in
// CourseError with a category, code and optional cause.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypePlugin     ErrorType = "plugin"
	ErrorTypeContent    ErrorType = "content"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeState      ErrorType = "state"
	ErrorTypeInternal   ErrorType = "internal"
)

// CourseError is a structured error type with context.
type CourseError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Component string
	Location  string
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *CourseError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.Location != "" {
		parts = append(parts, "location:"+e.Location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CourseError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison over type and code.
func (e *CourseError) Is(target error) bool {
	var t *CourseError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CourseError) WithContext(key string, value interface{}) *CourseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation attaches the location of the content node the error refers to.
func (e *CourseError) WithLocation(location string) *CourseError {
	e.Location = location

	return e
}

// WithComponent adds component context.
func (e *CourseError) WithComponent(component string) *CourseError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *CourseError {
	return &CourseError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewContentError creates an error for a content node that failed to load
// or parse.
func NewContentError(code, message string, cause error) *CourseError {
	return &CourseError{
		Type:    ErrorTypeContent,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *CourseError {
	return &CourseError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewStateError creates an error for student state persistence failures.
func NewStateError(code, message string, cause error) *CourseError {
	return &CourseError{
		Type:    ErrorTypeState,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ModuleMissingError is returned by the plugin registry when no content type
// is registered under the requested category and no default was supplied.
type ModuleMissingError struct {
	Category string
}

// Error implements the error interface.
func (e *ModuleMissingError) Error() string {
	return fmt.Sprintf("no content type registered for category %q", e.Category)
}

// Is matches any ModuleMissingError regardless of category.
func (e *ModuleMissingError) Is(target error) bool {
	var t *ModuleMissingError
	return errors.As(target, &t)
}

// NewModuleMissing creates a ModuleMissingError for the given category.
func NewModuleMissing(category string) *ModuleMissingError {
	return &ModuleMissingError{Category: category}
}

// IsModuleMissing reports whether err is a ModuleMissingError.
func IsModuleMissing(err error) bool {
	var t *ModuleMissingError
	return errors.As(err, &t)
}

// NotImplementedError is returned by abstract descriptor operations that a
// concrete content type did not override.
type NotImplementedError struct {
	Operation string
	Category  string
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s must be implemented by content type %q", e.Operation, e.Category)
}

// Is matches any NotImplementedError regardless of operation.
func (e *NotImplementedError) Is(target error) bool {
	var t *NotImplementedError
	return errors.As(target, &t)
}

// NewNotImplemented creates a NotImplementedError for the given operation
// and category.
func NewNotImplemented(operation, category string) *NotImplementedError {
	return &NotImplementedError{Operation: operation, Category: category}
}

// IsNotImplemented reports whether err is a NotImplementedError.
func IsNotImplemented(err error) bool {
	var t *NotImplementedError
	return errors.As(err, &t)
}
