// Package errors provides standardized error handling for SemModel packages.
// It includes error classification, standard error variables for the mapping
// engine's failure taxonomy, and helper functions for consistent error
// wrapping and classification across the system.
package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or definitions
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for the engine's failure taxonomy
var (
	// Registration-time errors. Fatal to the registration call only: the
	// process continues and the model is simply unavailable.
	ErrContextParse      = errors.New("context document parse failed")
	ErrConstraintDef     = errors.New("invalid constraint definition")
	ErrInheritanceConflict = errors.New("inheritance conflict")
	ErrCyclicInheritance = errors.New("cyclic inheritance")
	ErrDuplicateModel    = errors.New("model already registered")
	ErrUnknownModel      = errors.New("unknown model")

	// Per-operation validation errors. Recoverable: the caller corrects
	// the input and retries.
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrReadOnly         = errors.New("read-only attribute")
	ErrWriteOnly        = errors.New("write-only attribute")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrCardinality      = errors.New("cardinality violation")
	ErrRequiredMissing  = errors.New("required attribute missing")

	// Identifier generation errors
	ErrIdentifierExhausted = errors.New("identifier candidates exhausted")
	ErrIdentifierTaken     = errors.New("identifier already in use")

	// Resource lifecycle errors
	ErrDetachedResource = errors.New("resource is detached")

	// Store collaborator errors. Causes are opaque to the engine: only
	// success, conflict or failure is interpreted.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreConflict    = errors.New("store revision conflict")
	ErrSubjectNotFound  = errors.New("subject not found")

	// Capability extension errors
	ErrUnknownOperation = errors.New("unknown operation")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrStoreConflict) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// IsInvalid checks if an error is due to invalid input or definitions
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrContextParse) ||
		errors.Is(err, ErrConstraintDef) ||
		errors.Is(err, ErrInheritanceConflict) ||
		errors.Is(err, ErrCyclicInheritance) ||
		errors.Is(err, ErrDuplicateModel) ||
		errors.Is(err, ErrUnknownModel) ||
		errors.Is(err, ErrUnknownAttribute) ||
		errors.Is(err, ErrReadOnly) ||
		errors.Is(err, ErrWriteOnly) ||
		errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrCardinality) ||
		errors.Is(err, ErrRequiredMissing) ||
		errors.Is(err, ErrIdentifierTaken) ||
		errors.Is(err, ErrUnknownOperation)
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	// Programming errors: operating on a detached resource is never
	// recoverable by retrying the same call.
	return errors.Is(err, ErrDetachedResource)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsFatal(err) {
		return ErrorFatal
	}

	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// RetryConfig defines configuration for retrying transient store operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}
	return IsTransient(err)
}

// BackoffDelay returns the delay before the given retry attempt
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.BackoffFactor)
		if delay > rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	return delay
}
