// Package errors provides structured error types for the Beacon pipeline.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryDiscovery  ErrorCategory = "DISCOVERY"
	ErrCategoryDetail     ErrorCategory = "DETAIL"
	ErrCategoryTrigger    ErrorCategory = "TRIGGER"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeBadInvocation = "BAD_INVOCATION"
	CodeMissingField  = "MISSING_FIELD"

	// Storage codes
	CodeUploadFailed = "UPLOAD_FAILED"
	CodeListFailed   = "LIST_FAILED"
	CodeDeleteFailed = "DELETE_FAILED"

	// Discovery codes
	CodeDiscoveryFailed = "DISCOVERY_FAILED"
	CodeOrgViewDisabled = "ORG_VIEW_DISABLED"
	CodeWatermarkFailed = "WATERMARK_FAILED"

	// Detail codes
	CodeChunkFailed = "CHUNK_FAILED"

	// Trigger codes
	CodeTriggerFailed = "TRIGGER_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BeaconError is the structured error type used throughout the pipeline.
type BeaconError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *BeaconError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BeaconError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BeaconError) Is(target error) bool {
	var t *BeaconError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BeaconError.
func New(category ErrorCategory, code, message string) *BeaconError {
	return &BeaconError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new BeaconError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BeaconError {
	return &BeaconError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BeaconError) WithDetails(details map[string]interface{}) *BeaconError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var be *BeaconError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BeaconError.
func GetCategory(err error) ErrorCategory {
	var be *BeaconError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BeaconError.
func GetCode(err error) string {
	var be *BeaconError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. The retry itself is
// the orchestrator's job; the flag tells it whether a re-run can succeed.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage:
		return true
	case category == ErrCategoryTrigger && code == CodeTriggerFailed:
		return true
	case category == ErrCategoryDiscovery && code == CodeDiscoveryFailed:
		return true
	case category == ErrCategoryDetail && code == CodeChunkFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *BeaconError {
	return New(ErrCategoryValidation, code, message)
}

func NewStorageError(code, message string, cause error) *BeaconError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewDiscoveryError(code, message string, cause error) *BeaconError {
	return Wrap(ErrCategoryDiscovery, code, message, cause)
}

func NewDetailError(message string, cause error) *BeaconError {
	return Wrap(ErrCategoryDetail, CodeChunkFailed, message, cause)
}

func NewTriggerError(message string, cause error) *BeaconError {
	return Wrap(ErrCategoryTrigger, CodeTriggerFailed, message, cause)
}

func NewInternalError(message string, cause error) *BeaconError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
