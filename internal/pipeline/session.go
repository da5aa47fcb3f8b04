package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/services"
)

// Session holds the three independent pipelines of one client. Every request
// the session sends carries the session ID.
type Session struct {
	ID        string
	backend   *services.BackendClient
	http      *services.HTTPClient
	links     *services.LinkBuilder
	pipelines map[models.PipelineKind]*Orchestrator
	logger    *lib.Logger
}

// NewSessionFromConfig builds the HTTP client, backend client and pipelines from cfg
func NewSessionFromConfig(cfg *models.ProjectConfig, logger *lib.Logger) (*Session, error) {
	if cfg == nil {
		d := models.DefaultConfig()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, lib.ErrInvalidConfig("config", err.Error())
	}
	if logger == nil {
		logger = lib.NewNullLogger()
	}

	id := uuid.New().String()
	httpClient := services.NewHTTPClient(cfg.Backend.Timeout(), cfg.Retry, logger.Named("http")).WithSession(id)
	// Backend calls are sent once; a failed poll is repeated by the next tick
	backend := services.NewBackendClient(cfg.Backend.BaseURL, httpClient.WithoutRetry(), logger.Named("backend"))

	return newSession(id, cfg, backend, httpClient, logger), nil
}

// NewSession builds the pipelines on top of an existing backend client
func NewSession(cfg *models.ProjectConfig, backend *services.BackendClient, logger *lib.Logger) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if cfg == nil {
		d := models.DefaultConfig()
		cfg = &d
	}
	if logger == nil {
		logger = lib.NewNullLogger()
	}
	return newSession(uuid.New().String(), cfg, backend, nil, logger), nil
}

func newSession(id string, cfg *models.ProjectConfig, backend *services.BackendClient, httpClient *services.HTTPClient, logger *lib.Logger) *Session {
	logger = logger.With("session", id)

	s := &Session{
		ID:        id,
		backend:   backend,
		http:      httpClient,
		links:     services.NewLinkBuilder(backend.BaseURL()),
		pipelines: make(map[models.PipelineKind]*Orchestrator, len(models.AllPipelines)),
		logger:    logger,
	}

	for _, kind := range models.AllPipelines {
		s.pipelines[kind] = NewOrchestrator(backend, Options{
			Kind:           kind,
			PollInterval:   cfg.Polling.PollInterval(kind),
			DebounceDelay:  cfg.Search.DebounceDelay(),
			MinQueryLength: cfg.Search.MinQueryLength,
			MaxResults:     cfg.Search.MaxResults,
			Logger:         logger,
		})
	}

	logger.Debug("Session started", "backend", backend.BaseURL())
	return s
}

// Pipeline returns the orchestrator of kind
func (s *Session) Pipeline(kind models.PipelineKind) (*Orchestrator, error) {
	o, ok := s.pipelines[kind]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline: %q", kind)
	}
	return o, nil
}

// Backend returns the session's backend client
func (s *Session) Backend() *services.BackendClient {
	return s.backend
}

// HTTPClient returns the session-tagged HTTP client, or nil when the session
// was built on an existing backend client
func (s *Session) HTTPClient() *services.HTTPClient {
	return s.http
}

// Links returns the artifact link builder
func (s *Session) Links() *services.LinkBuilder {
	return s.links
}

// Close tears down every pipeline
func (s *Session) Close() {
	for _, kind := range models.AllPipelines {
		s.pipelines[kind].Close()
	}
	s.logger.Debug("Session closed")
}
