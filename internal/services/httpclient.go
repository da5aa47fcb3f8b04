package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

// Header names attached to every backend request
const (
	HeaderClientSession = "X-Client-Session"
	HeaderRequestID     = "X-Request-ID"
)

// HTTPClient wraps the standard http.Client with retry logic and configuration
type HTTPClient struct {
	client      *http.Client
	retryConfig lib.RetryConfig
	logger      *lib.Logger
	sessionID   string
}

// NewHTTPClient creates an HTTP client with timeout and retry configuration
func NewHTTPClient(timeout time.Duration, retryConfig models.RetryConfig, logger *lib.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		retryConfig: lib.NewRetryConfigFromModel(retryConfig),
		logger:      logger,
	}
}

// DefaultHTTPClient creates an HTTP client with sensible defaults
func DefaultHTTPClient() *HTTPClient {
	return NewHTTPClient(30*time.Second, models.DefaultConfig().Retry, lib.DefaultLogger)
}

// WithSession returns a copy of the client that tags requests with a session id
func (c *HTTPClient) WithSession(sessionID string) *HTTPClient {
	cp := *c
	cp.sessionID = sessionID
	return &cp
}

// WithoutRetry returns a copy of the client that sends every request once
func (c *HTTPClient) WithoutRetry() *HTTPClient {
	cp := *c
	cp.retryConfig = lib.NoRetry
	return &cp
}

// SessionID returns the session id sent with each request
func (c *HTTPClient) SessionID() string {
	return c.sessionID
}

// Get performs an HTTP GET request with retry logic
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.Do(req)
}

// Post performs an HTTP POST request with retry logic
func (c *HTTPClient) Post(ctx context.Context, url string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return c.Do(req)
}

// PostJSON performs an HTTP POST request with JSON content type
func (c *HTTPClient) PostJSON(ctx context.Context, url string, jsonBody []byte) (*http.Response, error) {
	return c.Post(ctx, url, "application/json", jsonBody)
}

// MultipartFile is a file part of a multipart form
type MultipartFile struct {
	Field    string
	Filename string
	Data     []byte
}

// PostMultipart performs an HTTP POST of a multipart form with optional file parts
func (c *HTTPClient) PostMultipart(ctx context.Context, url string, fields map[string]string, files ...MultipartFile) (*http.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.Post(ctx, url, w.FormDataContentType(), buf.Bytes())
}

// Do executes an HTTP request with retry logic for transient errors
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
	}

	var resp *http.Response
	attempt := 0
	err := lib.ExecuteWithRetry(req.Context(), func(ctx context.Context) error {
		if resp != nil {
			// Response of a previous transient failure, superseded by this attempt
			_ = resp.Body.Close()
			resp = nil
		}
		attempt++
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
		if c.sessionID != "" {
			req.Header.Set(HeaderClientSession, c.sessionID)
		}
		req.Header.Set(HeaderRequestID, uuid.NewString())

		lib.LogServiceCall(c.logger, req.URL.Host, req.URL.Path, req.Method)

		startTime := time.Now()
		r, err := c.client.Do(req)
		if err != nil {
			return err
		}
		lib.LogServiceResponse(c.logger, req.URL.Host, r.StatusCode, time.Since(startTime))

		resp = r
		if r.StatusCode >= 400 && lib.ClassifyHTTPError(r.StatusCode) == models.ErrorTypeTransient {
			return &transientStatusError{status: r.StatusCode, text: r.Status}
		}
		return nil
	}, c.retryConfig, func(err error) bool {
		_, transient := err.(*transientStatusError)
		if transient || lib.IsNetworkError(err) {
			if attempt < c.retryConfig.MaxAttempts {
				lib.LogRetry(c.logger, req.URL.String(), attempt-1, c.retryConfig.MaxAttempts, err)
			}
			return true
		}
		return false
	})

	if err != nil && req.Context().Err() != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, req.Context().Err()
	}

	// A transient status on the final attempt is handed back so callers can read the error body
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

type transientStatusError struct {
	status int
	text   string
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.text)
}

// Download downloads a file from a URL and writes it to a writer
// Returns the number of bytes downloaded
func (c *HTTPClient) Download(ctx context.Context, url string, writer io.Writer) (int64, error) {
	return c.DownloadWithProgress(ctx, url, writer, nil)
}

// DownloadWithProgress downloads a file with progress callback
// The callback receives the bytes downloaded so far and the total size (-1 if unknown)
func (c *HTTPClient) DownloadWithProgress(ctx context.Context, url string, writer io.Writer, progressCallback func(downloaded, total int64)) (int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, parseBackendError("download", resp)
	}

	reader := &ProgressReader{
		Reader: resp.Body,
		Size:   resp.ContentLength,
	}
	if progressCallback != nil {
		reader.Callback = func(n int64) { progressCallback(n, resp.ContentLength) }
	}

	bytesWritten, err := io.Copy(writer, reader)
	if err != nil {
		return bytesWritten, fmt.Errorf("failed to download: %w", err)
	}

	return bytesWritten, nil
}

// ProgressReader wraps an io.Reader and calls a callback with bytes read
type ProgressReader struct {
	Reader   io.Reader
	Size     int64
	Callback func(int64)
	total    int64
}

func (r *ProgressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.total += int64(n)
	if r.Callback != nil && n > 0 {
		r.Callback(r.total)
	}
	return n, err
}
