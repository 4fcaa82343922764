// Package errors provides structured error handling for jump.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, editor)
//   - 4XX: Validation errors
//   - 5XX: Internal errors (session, providers)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and process I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeInvalidSortOrder = "ERR_103_INVALID_SORT_ORDER"
	ErrCodeUnknownKind      = "ERR_104_UNKNOWN_KIND"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeRootNotFound = "ERR_202_ROOT_NOT_FOUND"
	ErrCodeScanFailed   = "ERR_203_SCAN_FAILED"
	ErrCodeParseFailed  = "ERR_204_PARSE_FAILED"
	ErrCodeEditorFailed = "ERR_205_EDITOR_FAILED"
	ErrCodeDatabaseBusy = "ERR_206_DATABASE_BUSY"
	ErrCodeFileTooLarge = "ERR_207_FILE_TOO_LARGE"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty       = "ERR_402_QUERY_EMPTY"
	ErrCodeUnknownCandidate = "ERR_403_UNKNOWN_CANDIDATE"
	ErrCodeInvalidPath      = "ERR_404_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeSessionNotReady = "ERR_502_SESSION_NOT_READY"
	ErrCodeSessionDisposed = "ERR_503_SESSION_DISPOSED"
	ErrCodeProviderFailed  = "ERR_504_PROVIDER_FAILED"
	ErrCodeCommandFailed   = "ERR_505_COMMAND_FAILED"
	ErrCodeSessionLoaded   = "ERR_506_SESSION_ALREADY_LOADED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSessionDisposed:
		return SeverityFatal
	case ErrCodeProviderFailed, ErrCodeDatabaseBusy:
		// The session keeps serving the other kinds.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeDatabaseBusy, ErrCodeSessionNotReady:
		return true
	default:
		return false
	}
}
