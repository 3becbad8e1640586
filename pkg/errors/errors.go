// Package errors provides custom error types for the staffsync system.
// These errors enable programmatic error checking across the reconciler,
// the entity stores and the CLI while keeping the per-employee failure
// messages human readable.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the staffsync system
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrOwnerResolution indicates that no owner could be found or created for a key
	ErrOwnerResolution = errors.New("owner resolution failed")

	// ErrProfileWrite indicates that a profile could not be built or persisted
	ErrProfileWrite = errors.New("profile write failed")

	// ErrSourceUnavailable indicates that a record source collection could not be read
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRunInProgress indicates that a sync run is already executing on the reconciler
	ErrRunInProgress = errors.New("sync run already in progress")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents a uniqueness violation in an entity store
type AlreadyExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// OwnerResolutionError is recorded when an employee's owner could not be
// found or created. The employee is skipped without any profile writes.
type OwnerResolutionError struct {
	FizCode string
	Err     error
}

// Error implements the error interface
func (e *OwnerResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve owner for fiz_code %s: %v", e.FizCode, e.Err)
	}
	return fmt.Sprintf("failed to resolve owner for fiz_code %s", e.FizCode)
}

// Unwrap implements errors.Unwrap
func (e *OwnerResolutionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *OwnerResolutionError) Is(target error) bool {
	return target == ErrOwnerResolution
}

// NewOwnerResolutionError creates a new OwnerResolutionError
func NewOwnerResolutionError(fizCode string, err error) *OwnerResolutionError {
	return &OwnerResolutionError{FizCode: fizCode, Err: err}
}

// ProfileWriteError is recorded when building or persisting a profile fails.
// Processing of the employee stops at the failing category.
type ProfileWriteError struct {
	FizCode  string
	Category string
	Op       string // "load", "build", "save"
	Err      error
}

// Error implements the error interface
func (e *ProfileWriteError) Error() string {
	return fmt.Sprintf("failed to %s %s profile for fiz_code %s: %v", e.Op, e.Category, e.FizCode, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ProfileWriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ProfileWriteError) Is(target error) bool {
	return target == ErrProfileWrite
}

// NewProfileWriteError creates a new ProfileWriteError
func NewProfileWriteError(fizCode, category, op string, err error) *ProfileWriteError {
	return &ProfileWriteError{
		FizCode:  fizCode,
		Category: category,
		Op:       op,
		Err:      err,
	}
}

// SourceError represents a failure to read one of the record source collections
type SourceError struct {
	Collection string
	Err        error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("failed to read %s from source: %v", e.Collection, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceError creates a new SourceError
func NewSourceError(collection string, err error) *SourceError {
	return &SourceError{Collection: collection, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// APIError represents a non-success response from a remote record source
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports server-side failures as ErrSourceUnavailable and missing
// documents as ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode >= 500:
		return target == ErrSourceUnavailable
	case e.StatusCode == 404:
		return target == ErrNotFound
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during entity store operations
type ResourceError struct {
	Operation string // "create", "load", "save", "delete", "find"
	Resource  string // "owner", "profile", "store", "source"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsOwnerResolution checks if an error is an owner resolution failure
func IsOwnerResolution(err error) bool {
	return errors.Is(err, ErrOwnerResolution)
}

// IsProfileWrite checks if an error is a profile write failure
func IsProfileWrite(err error) bool {
	return errors.Is(err, ErrProfileWrite)
}

// IsSourceError checks if an error came from reading the record source
func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
