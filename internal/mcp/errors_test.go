package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout, "timed out"},
		{"canceled", context.Canceled, ErrCodeTimeout, "canceled"},
		{"wrapped deadline", fmt.Errorf("load: %w", context.DeadlineExceeded), ErrCodeTimeout, "timed out"},
		{"tool not found", ErrToolNotFound, ErrCodeMethodNotFound, "Tool not found"},
		{"invalid params", ErrInvalidParams, ErrCodeInvalidParams, "Invalid parameters"},
		{"resource not found", ErrResourceNotFound, ErrCodeMethodNotFound, "Resource not found"},
		{"unknown", errors.New("boom"), ErrCodeInternalError, "Internal server error"},
		{
			"session disposed",
			jerrors.New(jerrors.ErrCodeSessionDisposed, "session is disposed", nil),
			ErrCodeSessionNotReady, "session is disposed",
		},
		{
			"provider failed",
			jerrors.New(jerrors.ErrCodeProviderFailed, "failed to load file candidates", errors.New("walk")),
			ErrCodeProviderFailed, "failed to load file candidates",
		},
		{
			"root missing",
			jerrors.New(jerrors.ErrCodeRootNotFound, "root not found", nil),
			ErrCodeFileNotFound, "root not found",
		},
		{
			"too large",
			jerrors.New(jerrors.ErrCodeFileTooLarge, "file too large", nil),
			ErrCodeFileTooLarge, "file too large",
		},
		{
			"validation",
			jerrors.ValidationError("session needs at least one kind", nil),
			ErrCodeInvalidParams, "at least one kind",
		},
		{
			"config",
			jerrors.ConfigError("bad sort", nil),
			ErrCodeInternalError, "bad sort",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Contains(t, got.Message, tt.wantMsg)
		})
	}
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	// Given: a structured error with a suggestion
	err := jerrors.New(jerrors.ErrCodeScanFailed, "cannot walk root", nil).
		WithSuggestion("Check the directory permissions.")

	// When: mapping it
	got := MapError(err)

	// Then: both message and suggestion reach the client
	assert.Equal(t, ErrCodeProviderFailed, got.Code)
	assert.Equal(t, "cannot walk root Check the directory permissions.", got.Message)
}

func TestMapError_KeepsMCPErrors(t *testing.T) {
	orig := NewInvalidParamsError("invalid file: ../x")
	assert.Same(t, orig, MapError(fmt.Errorf("tool: %w", orig)))
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeInvalidParams, Message: "bad"}
	assert.Equal(t, "MCP error -32602: bad", err.Error())
}

func TestNewResourceNotFoundError(t *testing.T) {
	err := NewResourceNotFoundError("jump://nope")
	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Equal(t, "Resource 'jump://nope' not found.", err.Message)
}
