package lib

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// LogLevel defines the severity of log messages
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

// Logger provides structured logging for the application
type Logger struct {
	hc hclog.Logger
}

// NewLogger creates a new logger instance writing to stderr
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(level, os.Stderr, false)
}

// NewLoggerWithWriter creates a logger writing to w, optionally as JSON lines
func NewLoggerWithWriter(level LogLevel, w io.Writer, jsonFormat bool) *Logger {
	return &Logger{
		hc: hclog.New(&hclog.LoggerOptions{
			Name:       "ytdlstem",
			Level:      level.hclogLevel(),
			Output:     w,
			JSONFormat: jsonFormat,
		}),
	}
}

// NewNullLogger returns a logger that discards everything
func NewNullLogger() *Logger {
	return &Logger{hc: hclog.NewNullLogger()}
}

// DefaultLogger returns a logger with INFO level
var DefaultLogger = NewLogger(LogLevelInfo)

// Named returns a sub-logger whose name is appended to the parent's
func (l *Logger) Named(name string) *Logger {
	return &Logger{hc: l.hc.Named(name)}
}

// With returns a sub-logger that always carries the given key/value pairs
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{hc: l.hc.With(fields...)}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...interface{}) {
	l.hc.Debug(message, fields...)
}

// Info logs an informational message
func (l *Logger) Info(message string, fields ...interface{}) {
	l.hc.Info(message, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...interface{}) {
	l.hc.Warn(message, fields...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...interface{}) {
	l.hc.Error(message, fields...)
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.hc.SetLevel(level.hclogLevel())
}

// IsDebug reports whether debug messages are emitted
func (l *Logger) IsDebug() bool {
	return l.hc.IsDebug()
}

// Hclog exposes the underlying logger for libraries that take an hclog.Logger
func (l *Logger) Hclog() hclog.Logger {
	return l.hc
}

func (lv LogLevel) hclogLevel() hclog.Level {
	switch lv {
	case LogLevelDebug:
		return hclog.Debug
	case LogLevelWarn:
		return hclog.Warn
	case LogLevelError:
		return hclog.Error
	case LogLevelOff:
		return hclog.Off
	default:
		return hclog.Info
	}
}

// ParseLogLevel converts a string to LogLevel
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug", "trace":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "off":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

// LogOperation logs the start and completion of an operation
func LogOperation(logger *Logger, operation string, fn func() error) error {
	logger.Debug(fmt.Sprintf("Starting: %s", operation))
	start := time.Now()

	err := fn()

	duration := time.Since(start)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed: %s", operation), "duration", duration, "error", err)
		return err
	}

	logger.Debug(fmt.Sprintf("Completed: %s", operation), "duration", duration)
	return nil
}

// LogRetry logs retry attempts
func LogRetry(logger *Logger, operation string, attempt int, maxAttempts int, err error) {
	// Remove line breaks from operation to prevent log spoofing
	safeOperation := strings.ReplaceAll(operation, "\n", "")
	safeOperation = strings.ReplaceAll(safeOperation, "\r", "")
	logger.Warn(
		fmt.Sprintf("Retry attempt %d/%d for: %s", attempt+1, maxAttempts, safeOperation),
		"error", err,
	)
}

// LogJobSubmitted logs an accepted submission
func LogJobSubmitted(logger *Logger, kind string, jobID string, queuePosition int) {
	logger.Info(
		"Job submitted",
		"pipeline", kind,
		"job_id", jobID,
		"queue_position", queuePosition,
	)
}

// LogJobFinished logs a job reaching a terminal state
func LogJobFinished(logger *Logger, kind string, jobID string, status string, message string) {
	if status == "error" {
		logger.Warn(
			"Job failed",
			"pipeline", kind,
			"job_id", jobID,
			"message", message,
		)
		return
	}
	logger.Info(
		"Job finished",
		"pipeline", kind,
		"job_id", jobID,
	)
}

// LogServiceCall logs HTTP service calls
func LogServiceCall(logger *Logger, service string, endpoint string, method string) {
	logger.Debug(
		"Service call",
		"service", service,
		"endpoint", endpoint,
		"method", method,
	)
}

// LogServiceResponse logs HTTP service responses
func LogServiceResponse(logger *Logger, service string, statusCode int, duration time.Duration) {
	if statusCode >= 400 {
		logger.Warn(
			"Service response",
			"service", service,
			"status", statusCode,
			"duration", duration,
		)
	} else {
		logger.Debug(
			"Service response",
			"service", service,
			"status", statusCode,
			"duration", duration,
		)
	}
}
