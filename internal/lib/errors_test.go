package lib_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/lib"
)

func TestAppError_Error(t *testing.T) {
	err := &lib.AppError{
		Category:    lib.CategoryNetwork,
		Message:     "Connection failed",
		Cause:       errors.New("dial tcp: connection refused"),
		IsRetryable: true,
	}

	result := err.Error()
	assert.Contains(t, result, "[NETWORK]")
	assert.Contains(t, result, "Connection failed")
	assert.Contains(t, result, "connection refused")
}

func TestAppError_ErrorWithHTTPStatus(t *testing.T) {
	err := lib.ErrSubmissionRejected("stems", 400, "Unsupported URL")

	result := err.Error()
	assert.Contains(t, result, "[SUBMISSION]")
	assert.Contains(t, result, "stems request rejected: Unsupported URL")
	assert.Contains(t, result, "(HTTP 400)")
	assert.False(t, err.IsRetryable)
}

func TestAppError_UserMessage(t *testing.T) {
	err := lib.ErrStorageWrite("/music/out", errors.New("permission denied"))

	msg := err.UserMessage()
	assert.Contains(t, msg, "Error: Cannot write artifact to /music/out")
	assert.Contains(t, msg, "How to fix:")
	assert.Contains(t, msg, "1. Check permissions")
	assert.Contains(t, msg, "Technical details: permission denied")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := lib.ErrNetworkUnreachable("http://localhost:8000", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsRetryable)
	assert.Contains(t, err.Guidance[1], "http://localhost:8000")
}

func TestErrJobFailed_DefaultMessage(t *testing.T) {
	err := lib.ErrJobFailed("j1", "")
	assert.Equal(t, lib.CategoryJob, err.Category)
	assert.Contains(t, err.Message, "unknown error")
}

func TestErrInvalidConfig(t *testing.T) {
	err := lib.ErrInvalidConfig("backend.base_url", "must be http(s)")
	assert.Equal(t, lib.CategoryConfiguration, err.Category)
	assert.Contains(t, err.Guidance[0], "backend.base_url")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  lib.ErrorCategory
		retryable bool
	}{
		{"job active", fmt.Errorf("submit: %w", lib.ErrJobActive), lib.CategoryState, false},
		{"network", errors.New("dial tcp 127.0.0.1:8000: connection refused"), lib.CategoryNetwork, true},
		{"disk full", errors.New("write /tmp/x: no space left on device"), lib.CategoryStorage, false},
		{"other", errors.New("something odd"), lib.CategoryValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := lib.ClassifyError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.retryable, appErr.IsRetryable)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestClassifyError_PassesThroughAppError(t *testing.T) {
	original := lib.ErrInvalidRequest("no format selected", nil)
	wrapped := fmt.Errorf("submit: %w", original)

	assert.Same(t, original, lib.ClassifyError(wrapped))
	assert.Nil(t, lib.ClassifyError(nil))
}

func TestWrapError(t *testing.T) {
	err := lib.WrapError(lib.CategoryNetwork, "Search failed", errors.New("i/o timeout"), "Try again")
	assert.True(t, err.IsRetryable)
	assert.Equal(t, []string{"Try again"}, err.Guidance)
}
