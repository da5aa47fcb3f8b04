package lib

import (
	"errors"
	"fmt"
	"strings"
)

// AppError represents a user-friendly error with context and guidance
type AppError struct {
	Category    ErrorCategory
	Message     string   // Short description of what went wrong
	Cause       error    // Underlying error
	Guidance    []string // What the user can do to fix it
	HTTPStatus  int      // HTTP status code if applicable
	IsRetryable bool     // Can the same call succeed if repeated later?
}

// ErrorCategory classifies errors for better UX
type ErrorCategory string

const (
	CategoryNetwork       ErrorCategory = "network"
	CategorySubmission    ErrorCategory = "submission"
	CategoryJob           ErrorCategory = "job"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStorage       ErrorCategory = "storage"
	CategoryState         ErrorCategory = "state"
)

// ErrJobActive is returned when a submit is attempted while a job is in flight
var ErrJobActive = errors.New("a job is already active on this pipeline")

// ErrClosed is returned by components used after Close
var ErrClosed = errors.New("component is closed")

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] ", strings.ToUpper(string(e.Category))))
	sb.WriteString(e.Message)

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if e.HTTPStatus > 0 {
		sb.WriteString(fmt.Sprintf(" (HTTP %d)", e.HTTPStatus))
	}

	return sb.String()
}

// UserMessage returns a formatted message suitable for displaying to end users
func (e *AppError) UserMessage() string {
	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if len(e.Guidance) > 0 {
		sb.WriteString("\nHow to fix:\n")
		for i, guide := range e.Guidance {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, guide))
		}
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", e.Cause))
	}

	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Network Errors

// ErrNetworkUnreachable creates an error for network connectivity issues
func ErrNetworkUnreachable(url string, cause error) *AppError {
	return &AppError{
		Category: CategoryNetwork,
		Message:  fmt.Sprintf("Cannot reach backend at %s", url),
		Cause:    cause,
		Guidance: []string{
			"Check that the backend is running",
			fmt.Sprintf("Verify the URL is correct: %s", url),
			"Use --backend or YTDLSTEM_BACKEND_BASE_URL to point at another backend",
		},
		IsRetryable: true,
	}
}

// ErrNetworkTimeout creates an error for request timeouts
func ErrNetworkTimeout(url string, cause error) *AppError {
	return &AppError{
		Category: CategoryNetwork,
		Message:  fmt.Sprintf("Request to %s timed out", url),
		Cause:    cause,
		Guidance: []string{
			"The backend may be busy with other jobs",
			"Increase backend.timeout_seconds in ytdlstem.yaml",
		},
		IsRetryable: true,
	}
}

// Submission Errors

// ErrSubmissionRejected creates an error for a submit the backend refused
func ErrSubmissionRejected(kind string, statusCode int, detail string) *AppError {
	return &AppError{
		Category:   CategorySubmission,
		Message:    fmt.Sprintf("%s request rejected: %s", kind, detail),
		HTTPStatus: statusCode,
		Guidance: []string{
			"Check the URL or file you submitted",
			"Pick another format and submit again",
		},
		IsRetryable: false,
	}
}

// Job Errors

// ErrJobFailed creates an error for a job the backend reported as failed
func ErrJobFailed(jobID string, message string) *AppError {
	if message == "" {
		message = "unknown error"
	}
	return &AppError{
		Category: CategoryJob,
		Message:  fmt.Sprintf("Job %s failed: %s", jobID, message),
		Guidance: []string{
			"Submit the job again",
			"Check the backend logs for the job id",
		},
		IsRetryable: false,
	}
}

// Validation Errors

// ErrInvalidRequest creates an error for a request that failed local validation
func ErrInvalidRequest(reason string, cause error) *AppError {
	return &AppError{
		Category:    CategoryValidation,
		Message:     fmt.Sprintf("Invalid request: %s", reason),
		Cause:       cause,
		IsRetryable: false,
	}
}

// Configuration Errors

// ErrInvalidConfig creates an error for configuration validation failures
func ErrInvalidConfig(field string, reason string) *AppError {
	return &AppError{
		Category: CategoryConfiguration,
		Message:  fmt.Sprintf("Invalid configuration: %s", reason),
		Guidance: []string{
			fmt.Sprintf("Check the '%s' field in your config file", field),
			"Run 'ytdlstem config show' to print the effective configuration",
		},
		IsRetryable: false,
	}
}

// Storage Errors

// ErrStorageWrite creates an error for artifacts that could not be saved
func ErrStorageWrite(dest string, cause error) *AppError {
	return &AppError{
		Category: CategoryStorage,
		Message:  fmt.Sprintf("Cannot write artifact to %s", dest),
		Cause:    cause,
		Guidance: []string{
			"Check permissions and free space of the output location",
			"For s3:// outputs, check AWS credentials and bucket region",
		},
		IsRetryable: false,
	}
}

// Helper Functions

// WrapError wraps a standard error with AppError context
func WrapError(category ErrorCategory, message string, cause error, guidance ...string) *AppError {
	return &AppError{
		Category:    category,
		Message:     message,
		Cause:       cause,
		Guidance:    guidance,
		IsRetryable: IsNetworkError(cause),
	}
}

// ClassifyError examines an error and returns appropriate user guidance
func ClassifyError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, ErrJobActive) {
		return &AppError{
			Category: CategoryState,
			Message:  "A job is already running",
			Cause:    err,
			Guidance: []string{"Wait for the current job to finish"},
		}
	}

	if IsNetworkError(err) {
		return &AppError{
			Category:    CategoryNetwork,
			Message:     "Network connectivity issue",
			Cause:       err,
			Guidance:    []string{"Check network connection", "Verify the backend is running"},
			IsRetryable: true,
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "permission denied") || strings.Contains(errMsg, "no space left") {
		return &AppError{
			Category: CategoryStorage,
			Message:  "Cannot write output",
			Cause:    err,
			Guidance: []string{"Check permissions and free space of the output directory"},
		}
	}

	return &AppError{
		Category: CategoryValidation,
		Message:  "An error occurred",
		Cause:    err,
		Guidance: []string{"Check the technical details below", "Run with --verbose for more information"},
	}
}
