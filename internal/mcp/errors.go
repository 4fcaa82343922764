// Package mcp exposes jump's ranking over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Custom MCP error codes for jump.
const (
	// ErrCodeSessionNotReady indicates the candidates are not loaded yet.
	ErrCodeSessionNotReady = -32001

	// ErrCodeProviderFailed indicates a provider could not load its kind.
	ErrCodeProviderFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a file no longer exists on disk.
	ErrCodeFileNotFound = -32004

	// ErrCodeFileTooLarge indicates a file is too large to return.
	ErrCodeFileTooLarge = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidParams    = errors.New("invalid parameters")
	ErrResourceNotFound = errors.New("resource not found")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var jumpErr *jerrors.JumpError
	if errors.As(err, &jumpErr) {
		return mapJumpError(jumpErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	case errors.Is(err, ErrResourceNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Resource not found."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapJumpError(je *jerrors.JumpError) *MCPError {
	message := je.Message
	if je.Suggestion != "" {
		message = fmt.Sprintf("%s %s", je.Message, je.Suggestion)
	}

	switch je.Code {
	case jerrors.ErrCodeSessionNotReady, jerrors.ErrCodeSessionDisposed:
		return &MCPError{Code: ErrCodeSessionNotReady, Message: message}
	case jerrors.ErrCodeProviderFailed, jerrors.ErrCodeScanFailed:
		return &MCPError{Code: ErrCodeProviderFailed, Message: message}
	case jerrors.ErrCodeFileNotFound, jerrors.ErrCodeRootNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case jerrors.ErrCodeFileTooLarge:
		return &MCPError{Code: ErrCodeFileTooLarge, Message: message}
	}

	switch je.Category {
	case jerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
