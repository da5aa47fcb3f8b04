package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

// BackendClient handles communication with the YTDLStem REST backend
type BackendClient struct {
	baseURL    string
	httpClient *HTTPClient
	logger     *lib.Logger
}

// BackendError represents a non-2xx response from the backend
type BackendError struct {
	Operation  string // "search", "formats", "submit", "status", "health", "download"
	StatusCode int
	Message    string
	ErrorType  models.ErrorType
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s error: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
}

// IsRetryable returns true if this error should be retried
func (e *BackendError) IsRetryable() bool {
	return e.ErrorType == models.ErrorTypeTransient
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.StatusCode == http.StatusNotFound
}

// HealthResponse is the envelope of GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	QueueSize int    `json:"queue_size"`
}

type downloadStartBody struct {
	URL      string           `json:"url"`
	FormatID string           `json:"format_id"`
	Type     models.MediaKind `json:"type"`
}

// NewBackendClient creates a new backend client
func NewBackendClient(baseURL string, httpClient *HTTPClient, logger *lib.Logger) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the backend root without a trailing slash
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// Search runs a free-text search. Results are returned in backend order.
func (c *BackendClient) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	endpoint := c.baseURL + "/api/download/search?q=" + url.QueryEscape(query)

	var out models.SearchResponse
	if err := c.getJSON(ctx, "search", endpoint, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Formats lists the downloadable encodings of a media URL
func (c *BackendClient) Formats(ctx context.Context, source string) (*models.FormatSet, error) {
	endpoint := c.baseURL + "/api/download/formats?url=" + url.QueryEscape(source)

	var out models.FormatSet
	if err := c.getJSON(ctx, "formats", endpoint, &out); err != nil {
		return nil, err
	}
	out.Normalize()
	return &out, nil
}

// Submit starts a job. Download requests are sent as JSON; stems and karaoke
// requests as multipart forms carrying either the URL or the uploaded file.
func (c *BackendClient) Submit(ctx context.Context, req models.JobRequest) (models.SubmitResponse, error) {
	endpoint := fmt.Sprintf("%s/api/%s/start", c.baseURL, req.Kind)

	c.logger.Info("Submitting job", "pipeline", req.Kind, "url", req.URL, "upload", req.HasUpload())

	var (
		resp *http.Response
		err  error
	)
	switch req.Kind {
	case models.PipelineDownload:
		body, merr := json.Marshal(downloadStartBody{URL: req.URL, FormatID: req.FormatID, Type: req.MediaKind})
		if merr != nil {
			return models.SubmitResponse{}, fmt.Errorf("failed to marshal request: %w", merr)
		}
		resp, err = c.httpClient.PostJSON(ctx, endpoint, body)

	case models.PipelineStems, models.PipelineKaraoke:
		fields := map[string]string{"output_format": req.OutputFormat}
		if req.Kind == models.PipelineStems {
			fields["stems"] = req.StemsField()
		}
		var files []MultipartFile
		if req.HasUpload() {
			files = append(files, MultipartFile{Field: "file", Filename: req.Upload.Filename, Data: req.Upload.Data})
		} else {
			fields["url"] = req.URL
		}
		resp, err = c.httpClient.PostMultipart(ctx, endpoint, fields, files...)

	default:
		return models.SubmitResponse{}, fmt.Errorf("unknown pipeline: %q", req.Kind)
	}

	if err != nil {
		c.logger.Error("Job submission failed", "pipeline", req.Kind, "error", err)
		return models.SubmitResponse{}, &BackendError{
			Operation: "submit",
			Message:   err.Error(),
			ErrorType: models.ErrorTypeTransient,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return models.SubmitResponse{}, parseBackendError("submit", resp)
	}

	var out models.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.SubmitResponse{}, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if out.JobID == "" {
		return models.SubmitResponse{}, fmt.Errorf("backend accepted the job without a job id")
	}

	lib.LogJobSubmitted(c.logger, string(req.Kind), out.JobID, out.QueuePosition)
	return out, nil
}

// Status fetches the current snapshot of a job
func (c *BackendClient) Status(ctx context.Context, handle models.JobHandle) (models.JobState, error) {
	endpoint := fmt.Sprintf("%s/api/%s/status/%s", c.baseURL, handle.Kind, url.PathEscape(handle.JobID))

	var out models.StatusResponse
	if err := c.getJSON(ctx, "status", endpoint, &out); err != nil {
		return models.JobState{}, err
	}
	return out.ToState()
}

// Health checks that the backend is up and reports its queue size
func (c *BackendClient) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "health", c.baseURL+"/api/health", &out); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

func (c *BackendClient) getJSON(ctx context.Context, operation, endpoint string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &BackendError{
			Operation: operation,
			Message:   err.Error(),
			ErrorType: models.ErrorTypeTransient,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseBackendError(operation, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

// parseBackendError reads a FastAPI style {"detail": "..."} body into a BackendError
func parseBackendError(operation string, resp *http.Response) *BackendError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	message := strings.TrimSpace(string(bodyBytes))
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(bodyBytes, &envelope) == nil && len(envelope.Detail) > 0 {
		var detail string
		if json.Unmarshal(envelope.Detail, &detail) == nil {
			message = detail
		} else {
			// Validation errors carry a list of objects
			message = string(envelope.Detail)
		}
	}
	if message == "" {
		message = resp.Status
	}

	return &BackendError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    message,
		ErrorType:  lib.ClassifyHTTPError(resp.StatusCode),
	}
}
