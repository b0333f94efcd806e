// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that components can return.
var (
	// ErrInvalidArgument is returned when a constructor or operation receives a bad parameter.
	// Every ValidationError unwraps to it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransientIO is returned when an asset could not be fetched or read.
	// The failure may go away on a later attempt, but nothing here retries.
	ErrTransientIO = errors.New("transient i/o failure")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoClipLoaded is returned when playback is attempted with no clip loaded.
	ErrNoClipLoaded = errors.New("no clip loaded")

	// ErrUnknownExample is returned when a demo name is not in the catalogue.
	ErrUnknownExample = errors.New("unknown example")

	// ErrEmptyClip is returned when decoding produced no samples.
	ErrEmptyClip = errors.New("decoded clip is empty")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap makes every validation error match ErrInvalidArgument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// AssetError represents a failure to load an asset.
// It matches ErrTransientIO and the underlying cause.
type AssetError struct {
	Op       string // Operation that failed (e.g., "open", "fetch", "read")
	Location string // Path or URL of the asset
	Status   int    // HTTP status code, 0 for local files
	Err      error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AssetError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("asset %s failed for '%s': status %d", e.Op, e.Location, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("asset %s failed for '%s': %v", e.Op, e.Location, e.Err)
	}
	return fmt.Sprintf("asset %s failed for '%s'", e.Op, e.Location)
}

// Unwrap returns the transient i/o kind together with the cause.
func (e *AssetError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransientIO}
	}
	return []error{ErrTransientIO, e.Err}
}

// NewAssetError creates a new AssetError.
func NewAssetError(op, location string, status int, err error) *AssetError {
	return &AssetError{
		Op:       op,
		Location: location,
		Status:   status,
		Err:      err,
	}
}

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "initialize", "open", "play")
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio engine %s failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService", "ExampleService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
