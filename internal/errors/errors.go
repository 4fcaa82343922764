package errors

import (
	"errors"
	"fmt"
)

// JumpError is the structured error type for jump.
// It carries enough context for logging, CLI output and MCP responses.
type JumpError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *JumpError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *JumpError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a JumpError with the same code.
func (e *JumpError) Is(target error) bool {
	if t, ok := target.(*JumpError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *JumpError) WithDetail(key, value string) *JumpError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *JumpError) WithSuggestion(suggestion string) *JumpError {
	e.Suggestion = suggestion
	return e
}

// New creates a JumpError. Category, severity and the retryable flag are
// derived from the code.
func New(code string, message string, cause error) *JumpError {
	return &JumpError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a JumpError from an existing error, reusing its message.
func Wrap(code string, err error) *JumpError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *JumpError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *JumpError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *JumpError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first JumpError in err's chain.
func as(err error) (*JumpError, bool) {
	var je *JumpError
	if errors.As(err, &je) {
		return je, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if je, ok := as(err); ok {
		return je.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if je, ok := as(err); ok {
		return je.Severity == SeverityFatal
	}
	return false
}

// HasCode reports whether any JumpError in err's chain carries code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &JumpError{Code: code})
}

// GetCode extracts the error code from a JumpError.
// Returns empty string if err is not a JumpError.
func GetCode(err error) string {
	if je, ok := as(err); ok {
		return je.Code
	}
	return ""
}

// GetCategory extracts the category from a JumpError.
func GetCategory(err error) Category {
	if je, ok := as(err); ok {
		return je.Category
	}
	return ""
}
