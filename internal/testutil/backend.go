// Package testutil provides an in-process fake of the YTDLStem backend for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// RecordedRequest captures what the client sent
type RecordedRequest struct {
	Method    string
	Path      string
	Query     string
	SessionID string
	RequestID string
	Form      map[string]string
	FileName  string
	FileData  []byte
	JSON      map[string]interface{}
}

type scriptedJob struct {
	submit   models.SubmitResponse
	statuses []models.StatusResponse
}

type rejection struct {
	status int
	detail string
}

// FakeBackend serves the backend REST API from scripted data
type FakeBackend struct {
	Server *httptest.Server

	mu            sync.Mutex
	requests      []RecordedRequest
	searchResults map[string][]models.SearchResult
	searchFail    bool
	formats       map[string]*models.FormatSet
	formatsFail   bool
	pending       map[models.PipelineKind][]scriptedJob
	rejections    map[models.PipelineKind]rejection
	scripts       map[string][]models.StatusResponse
	statusCalls   map[string]int
	statusFail    map[string]int
	artifacts     map[string][]byte
	delays        map[string]time.Duration

	inflightStatus int32
	maxInflight    int32
}

// NewFakeBackend starts a fake backend that is shut down when the test ends
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		searchResults: map[string][]models.SearchResult{},
		formats:       map[string]*models.FormatSet{},
		pending:       map[models.PipelineKind][]scriptedJob{},
		rejections:    map[models.PipelineKind]rejection{},
		scripts:       map[string][]models.StatusResponse{},
		statusCalls:   map[string]int{},
		statusFail:    map[string]int{},
		artifacts:     map[string][]byte{},
		delays:        map[string]time.Duration{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", fb.handleHealth)
	mux.HandleFunc("GET /api/download/search", fb.handleSearch)
	mux.HandleFunc("GET /api/download/formats", fb.handleFormats)
	mux.HandleFunc("POST /api/{kind}/start", fb.handleStart)
	mux.HandleFunc("GET /api/{kind}/status/{id}", fb.handleStatus)
	mux.HandleFunc("GET /api/download/file/{id}", fb.handleArtifact)
	mux.HandleFunc("GET /api/stems/download/{id}", fb.handleArtifact)
	mux.HandleFunc("GET /api/karaoke/download/{id}", fb.handleArtifact)

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the fake backend
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// SetSearchResults scripts the results returned for a query
func (fb *FakeBackend) SetSearchResults(query string, results []models.SearchResult) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.searchResults[query] = results
}

// FailSearch makes every search return HTTP 500
func (fb *FakeBackend) FailSearch(fail bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.searchFail = fail
}

// SetFormats scripts the format set returned for a source URL
func (fb *FakeBackend) SetFormats(source string, fs *models.FormatSet) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.formats[source] = fs
}

// FailFormats makes every format request return HTTP 500
func (fb *FakeBackend) FailFormats(fail bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.formatsFail = fail
}

// SetDelay delays responses of one endpoint: "search", "formats", "start" or "status"
func (fb *FakeBackend) SetDelay(endpoint string, d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.delays[endpoint] = d
}

// ScriptJob queues the job the next submit of kind will create. Status polls
// walk through statuses in order; the last one repeats.
func (fb *FakeBackend) ScriptJob(kind models.PipelineKind, jobID string, queuePosition int, statuses ...models.StatusResponse) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i := range statuses {
		if statuses[i].JobID == "" {
			statuses[i].JobID = jobID
		}
	}
	fb.pending[kind] = append(fb.pending[kind], scriptedJob{
		submit: models.SubmitResponse{
			JobID:         jobID,
			Status:        models.JobStatusQueued,
			QueuePosition: queuePosition,
		},
		statuses: statuses,
	})
}

// RejectSubmit makes submits of kind fail with a FastAPI style error body
func (fb *FakeBackend) RejectSubmit(kind models.PipelineKind, status int, detail string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejections[kind] = rejection{status: status, detail: detail}
}

// FailStatus makes the next n status polls of a job fail with HTTP 503
func (fb *FakeBackend) FailStatus(jobID string, n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.statusFail[jobID] = n
}

// SetArtifact serves content at an artifact path such as "/api/stems/download/j1?stem=vocals"
func (fb *FakeBackend) SetArtifact(pathAndQuery string, content []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.artifacts[pathAndQuery] = content
}

// Requests returns every request received so far
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]RecordedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

// RequestsTo returns the requests whose path starts with prefix
func (fb *FakeBackend) RequestsTo(prefix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range fb.Requests() {
		if strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// SearchQueries returns the queries searched for, in order
func (fb *FakeBackend) SearchQueries() []string {
	var out []string
	for _, r := range fb.RequestsTo("/api/download/search") {
		out = append(out, r.Query)
	}
	return out
}

// StatusCalls returns how many status requests a job received
func (fb *FakeBackend) StatusCalls(jobID string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.statusCalls[jobID]
}

// MaxConcurrentStatus returns the highest number of status requests served at once
func (fb *FakeBackend) MaxConcurrentStatus() int {
	return int(atomic.LoadInt32(&fb.maxInflight))
}

func (fb *FakeBackend) delay(endpoint string, r *http.Request) {
	fb.mu.Lock()
	d := fb.delays[endpoint]
	fb.mu.Unlock()
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-r.Context().Done():
	}
}

func (fb *FakeBackend) record(r *http.Request) RecordedRequest {
	rec := RecordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		SessionID: r.Header.Get("X-Client-Session"),
		RequestID: r.Header.Get("X-Request-ID"),
	}
	if q := r.URL.Query(); q.Has("q") {
		rec.Query = q.Get("q")
	} else if q.Has("url") {
		rec.Query = q.Get("url")
	} else {
		rec.Query = r.URL.RawQuery
	}

	if r.Method == http.MethodPost {
		ct := r.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(ct, "application/json"):
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &rec.JSON)
		case strings.HasPrefix(ct, "multipart/form-data"):
			if err := r.ParseMultipartForm(32 << 20); err == nil {
				rec.Form = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					if len(v) > 0 {
						rec.Form[k] = v[0]
					}
				}
				if files := r.MultipartForm.File["file"]; len(files) > 0 {
					rec.FileName = files[0].Filename
					if f, err := files[0].Open(); err == nil {
						rec.FileData, _ = io.ReadAll(f)
						_ = f.Close()
					}
				}
			}
		}
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	fb.mu.Unlock()
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (fb *FakeBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	fb.record(r)
	fb.mu.Lock()
	queued := 0
	for _, jobs := range fb.pending {
		queued += len(jobs)
	}
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "queue_size": queued})
}

func (fb *FakeBackend) handleSearch(w http.ResponseWriter, r *http.Request) {
	rec := fb.record(r)
	fb.delay("search", r)

	fb.mu.Lock()
	fail := fb.searchFail
	results := fb.searchResults[rec.Query]
	fb.mu.Unlock()

	if fail {
		writeDetail(w, http.StatusInternalServerError, "search backend unavailable")
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, models.SearchResponse{Results: results})
}

func (fb *FakeBackend) handleFormats(w http.ResponseWriter, r *http.Request) {
	rec := fb.record(r)
	fb.delay("formats", r)

	fb.mu.Lock()
	fail := fb.formatsFail
	fs := fb.formats[rec.Query]
	fb.mu.Unlock()

	if fail {
		writeDetail(w, http.StatusInternalServerError, "extractor failed")
		return
	}
	if fs == nil {
		writeDetail(w, http.StatusBadRequest, "Please provide a valid URL")
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (fb *FakeBackend) handleStart(w http.ResponseWriter, r *http.Request) {
	fb.record(r)
	fb.delay("start", r)

	kind := models.PipelineKind(r.PathValue("kind"))

	fb.mu.Lock()
	if rej, ok := fb.rejections[kind]; ok {
		fb.mu.Unlock()
		writeDetail(w, rej.status, rej.detail)
		return
	}
	queue := fb.pending[kind]
	if len(queue) == 0 {
		fb.mu.Unlock()
		writeDetail(w, http.StatusInternalServerError, "no scripted job")
		return
	}
	job := queue[0]
	fb.pending[kind] = queue[1:]
	fb.scripts[job.submit.JobID] = job.statuses
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, job.submit)
}

func (fb *FakeBackend) handleStatus(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&fb.inflightStatus, 1)
	defer atomic.AddInt32(&fb.inflightStatus, -1)
	for {
		cur := atomic.LoadInt32(&fb.maxInflight)
		if n <= cur || atomic.CompareAndSwapInt32(&fb.maxInflight, cur, n) {
			break
		}
	}

	fb.record(r)
	fb.delay("status", r)

	id := r.PathValue("id")

	fb.mu.Lock()
	fb.statusCalls[id]++
	if fb.statusFail[id] > 0 {
		fb.statusFail[id]--
		fb.mu.Unlock()
		writeDetail(w, http.StatusServiceUnavailable, "busy")
		return
	}
	script, ok := fb.scripts[id]
	if !ok || len(script) == 0 {
		fb.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	resp := script[0]
	if len(script) > 1 {
		fb.scripts[id] = script[1:]
	}
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (fb *FakeBackend) handleArtifact(w http.ResponseWriter, r *http.Request) {
	fb.record(r)

	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	fb.mu.Lock()
	content, ok := fb.artifacts[key]
	fb.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

// Status builds a status response for scripting
func Status(status models.JobStatus, progress float64, message string, queuePosition int) models.StatusResponse {
	return models.StatusResponse{
		Status:        status,
		Progress:      progress,
		Message:       message,
		QueuePosition: queuePosition,
	}
}

// Done builds a finished status response carrying a result
func Done(result *models.JobResult) models.StatusResponse {
	return models.StatusResponse{
		Status:   models.JobStatusDone,
		Progress: 100,
		Message:  "Done",
		Result:   result,
	}
}
