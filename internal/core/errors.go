package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatExecution  ErrorCategory = "execution"  // Runtime failure
	ErrCatState      ErrorCategory = "state"      // Store corruption/conflict
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
	Details  map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
	}
}

// ErrStage creates a fatal pipeline error naming the failing stage.
func ErrStage(stage Stage, cause error) *DomainError {
	return &DomainError{
		Category: ErrCatExecution,
		Code:     CodeStageFailed,
		Message:  fmt.Sprintf("stage %s failed", stage),
		Cause:    cause,
		Details:  map[string]interface{}{"stage": stage.String()},
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatState,
		Code:     code,
		Message:  message,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// FailedStage extracts the failing stage from a fatal pipeline error.
func FailedStage(err error) (Stage, bool) {
	var domErr *DomainError
	if !errors.As(err, &domErr) || domErr.Code != CodeStageFailed {
		return "", false
	}
	s, ok := domErr.Details["stage"].(string)
	if !ok {
		return "", false
	}
	return Stage(s), true
}

// Predefined error codes
const (
	CodeRunNotFound     = "RUN_NOT_FOUND"
	CodeStageFailed     = "STAGE_FAILED"
	CodePersistFailed   = "PERSIST_FAILED"
	CodeDuplicateRun    = "DUPLICATE_RUN"
	CodeEmptyQuery      = "EMPTY_QUERY"
	CodeQueryTooLong    = "QUERY_TOO_LONG"
	CodeInvalidTarget   = "INVALID_OVERRIDE_TARGET"
	CodeInvalidScenario = "INVALID_SCENARIO"
)

// MaxQueryLength is the maximum allowed query length.
const MaxQueryLength = 10000
