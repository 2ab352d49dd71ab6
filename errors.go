package dbscope

import (
	"errors"
	"fmt"
)

// Standard sentinel errors. Every typed error below matches one of them
// through errors.Is.
var (
	// ErrMalformedLocator is returned when a locator string cannot be parsed.
	ErrMalformedLocator = errors.New("dbscope: malformed locator")

	// ErrUnknownResourceType is returned when no reader is registered for
	// the requested object type.
	ErrUnknownResourceType = errors.New("dbscope: unknown resource type")

	// ErrExecution is returned when the driver fails to execute a query.
	ErrExecution = errors.New("dbscope: query execution failed")

	// ErrRead is returned when an object reader fails.
	ErrRead = errors.New("dbscope: read failed")

	// ErrUnboundPlaceholder is returned by strict templates when a
	// placeholder has no bound value.
	ErrUnboundPlaceholder = errors.New("dbscope: unbound placeholder")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("dbscope: invalid config")
)

// MalformedLocatorError reports a locator string that could not be parsed.
type MalformedLocatorError struct {
	Input  string // Raw locator string
	Reason string // What is wrong with it
}

// Error returns the error string.
func (e *MalformedLocatorError) Error() string {
	return fmt.Sprintf("dbscope: malformed locator %q: %s", e.Input, e.Reason)
}

// Is reports whether the target error matches ErrMalformedLocator.
func (e *MalformedLocatorError) Is(err error) bool {
	return err == ErrMalformedLocator
}

// NewMalformedLocatorError returns a new MalformedLocatorError.
func NewMalformedLocatorError(input, reason string) *MalformedLocatorError {
	return &MalformedLocatorError{Input: input, Reason: reason}
}

// IsMalformedLocator returns true if the error is a MalformedLocatorError.
func IsMalformedLocator(err error) bool {
	if err == nil {
		return false
	}
	var e *MalformedLocatorError
	return errors.As(err, &e) || errors.Is(err, ErrMalformedLocator)
}

// UnknownResourceTypeError reports a dispatch miss.
type UnknownResourceTypeError struct {
	Type string
}

// Error returns the error string.
func (e *UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("dbscope: unknown resource type %q", e.Type)
}

// Is reports whether the target error matches ErrUnknownResourceType.
func (e *UnknownResourceTypeError) Is(err error) bool {
	return err == ErrUnknownResourceType
}

// NewUnknownResourceTypeError returns a new UnknownResourceTypeError.
func NewUnknownResourceTypeError(typ string) *UnknownResourceTypeError {
	return &UnknownResourceTypeError{Type: typ}
}

// IsUnknownResourceType returns true if the error is an UnknownResourceTypeError.
func IsUnknownResourceType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownResourceTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownResourceType)
}

// ExecutionError wraps a driver or query failure.
type ExecutionError struct {
	Source string // Data source label, if known
	Query  string // Fully substituted query text
	Err    error  // Underlying driver error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("dbscope: executing query on %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("dbscope: executing query: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrExecution.
func (e *ExecutionError) Is(err error) bool {
	return err == ErrExecution
}

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(source, query string, err error) *ExecutionError {
	return &ExecutionError{Source: source, Query: query, Err: err}
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// ReadError is the single domain error a reader returns, carrying the
// lower-level cause.
type ReadError struct {
	Type    string // Object type being read
	Locator string // Canonical locator that was requested
	Err     error  // Underlying error
}

// Error returns the error string.
func (e *ReadError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("dbscope: reading %s (%s): %v", e.Type, e.Locator, e.Err)
	}
	return fmt.Sprintf("dbscope: reading %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrRead.
func (e *ReadError) Is(err error) bool {
	return err == ErrRead
}

// NewReadError returns a new ReadError.
func NewReadError(typ, locator string, err error) *ReadError {
	return &ReadError{Type: typ, Locator: locator, Err: err}
}

// IsReadError returns true if the error is a ReadError.
func IsReadError(err error) bool {
	if err == nil {
		return false
	}
	var e *ReadError
	return errors.As(err, &e)
}

// UnboundPlaceholderError is returned by strict templates.
type UnboundPlaceholderError struct {
	Name string
}

// Error returns the error string.
func (e *UnboundPlaceholderError) Error() string {
	return fmt.Sprintf("dbscope: placeholder %q has no bound value", e.Name)
}

// Is reports whether the target error matches ErrUnboundPlaceholder.
func (e *UnboundPlaceholderError) Is(err error) bool {
	return err == ErrUnboundPlaceholder
}

// NewUnboundPlaceholderError returns a new UnboundPlaceholderError.
func NewUnboundPlaceholderError(name string) *UnboundPlaceholderError {
	return &UnboundPlaceholderError{Name: name}
}

// IsUnboundPlaceholder returns true if the error is an UnboundPlaceholderError.
func IsUnboundPlaceholder(err error) bool {
	if err == nil {
		return false
	}
	var e *UnboundPlaceholderError
	return errors.As(err, &e) || errors.Is(err, ErrUnboundPlaceholder)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("dbscope: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("dbscope: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrConfig.
func (e *ConfigError) Is(err error) bool {
	return err == ErrConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e) || errors.Is(err, ErrConfig)
}
