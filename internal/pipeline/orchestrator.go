package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

var (
	// ErrSuperseded is returned for work whose result was discarded because newer work replaced it
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrStoreClosed is returned by WaitFor once the store no longer publishes
	ErrStoreClosed = errors.New("pipeline store closed")

	// ErrNotSupported is returned for an operation the pipeline does not offer
	ErrNotSupported = errors.New("operation not supported by this pipeline")
)

// Backend is everything a pipeline needs from the processing backend
type Backend interface {
	Searcher
	FormatLister
	JobBackend
}

// Options configure one Orchestrator
type Options struct {
	Kind           models.PipelineKind
	PollInterval   time.Duration
	DebounceDelay  time.Duration
	MinQueryLength int
	MaxResults     int
	Logger         *lib.Logger
}

// Orchestrator wires input handling, search, format selection and the job
// lifecycle of one pipeline into a single Store. All methods are safe for
// concurrent use.
type Orchestrator struct {
	kind      models.PipelineKind
	store     *Store
	debouncer *lib.Debouncer
	search    *SearchController
	catalog   *FormatCatalog // download only
	jobs      *JobController
	delay     time.Duration
	logger    *lib.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	input        string
	mode         models.InputMode
	upload       *models.Upload
	outputFormat string
	stems        []string
	closed       bool
}

// NewOrchestrator builds an idle pipeline
func NewOrchestrator(backend Backend, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = lib.NewNullLogger()
	}
	logger = logger.Named(string(opts.Kind))

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		kind:      opts.Kind,
		debouncer: lib.NewDebouncer(),
		delay:     opts.DebounceDelay,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		mode:      models.InputModeSearch,
	}

	initial := Snapshot{
		Kind:     opts.Kind,
		Mode:     models.InputModeSearch,
		Platform: models.PlatformSearch,
		Search:   SearchState{Status: SearchIdle, Results: []models.SearchResult{}},
		Job:      models.IdleState(),
	}
	if opts.Kind != models.PipelineDownload {
		o.outputFormat = models.OutputFormatMP3
		initial.OutputFormat = models.OutputFormatMP3
	}

	o.search = NewSearchController(ctx, backend, o.debouncer, SearchConfig{
		Delay:          opts.DebounceDelay,
		MinQueryLength: opts.MinQueryLength,
		MaxResults:     opts.MaxResults,
	}, logger, func(st SearchState) {
		o.store.Update(func(s *Snapshot) { s.Search = st })
	})

	if opts.Kind == models.PipelineDownload {
		o.catalog = NewFormatCatalog(backend, logger, func(st CatalogState) {
			o.store.Update(func(s *Snapshot) {
				cs := st
				s.Catalog = &cs
			})
		})
		cs := o.catalog.State()
		initial.Catalog = &cs
	}

	o.jobs = NewJobController(ctx, opts.Kind, backend, opts.PollInterval, logger, func(st models.JobState) {
		o.store.Update(func(s *Snapshot) { o.applyJobState(s, st) })
	})

	o.store = NewStore(initial, deriveCanSubmit)
	return o
}

// Kind returns the pipeline this orchestrator drives
func (o *Orchestrator) Kind() models.PipelineKind {
	return o.kind
}

// Store returns the pipeline's state store
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Snapshot returns the current state of the pipeline
func (o *Orchestrator) Snapshot() Snapshot {
	return o.store.Snapshot()
}

func (o *Orchestrator) applyJobState(s *Snapshot, st models.JobState) {
	s.Job = st
	if st.Status == models.JobStatusSubmitting {
		s.SubmitError = ""
	}
	if st.Status == models.JobStatusDone {
		handle, _ := models.HandleOf(o.kind, st)
		s.Artifacts = Resolve(handle, st.Result)
	} else {
		s.Artifacts = nil
	}
}

func deriveCanSubmit(s *Snapshot) {
	if s.Artifacts == nil {
		s.Artifacts = []models.ArtifactRef{}
	}

	ready := false
	switch s.Mode {
	case models.InputModeURL:
		ready = strings.TrimSpace(s.Input) != ""
	case models.InputModeUpload:
		ready = s.Kind != models.PipelineDownload && s.Upload != nil
	}
	s.CanSubmit = ready && !s.Job.Status.IsActive()
}

// SetInput handles a change of the text input. URLs are fetched into the
// format catalog after the debounce delay; text goes to search.
func (o *Orchestrator) SetInput(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	mode, platform := lib.Classify(text)
	o.input = text
	o.mode = mode
	o.upload = nil

	o.store.Update(func(s *Snapshot) {
		s.Input = text
		s.Mode = mode
		s.Platform = platform
		s.Upload = nil
		s.SubmitError = ""
	})

	// Cancels any pending debounced action, so the catalog fetch below supersedes it
	o.search.OnInput(text)

	if o.catalog == nil {
		return
	}
	source := strings.TrimSpace(text)
	o.catalog.Reset()
	if mode == models.InputModeURL && source != "" {
		o.debouncer.Schedule(func() {
			_ = o.catalog.Fetch(o.ctx, source)
		}, o.delay)
	}
}

// SelectResult picks search result i as the source URL
func (o *Orchestrator) SelectResult(i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return lib.ErrClosed
	}

	results := o.search.State().Results
	if i < 0 || i >= len(results) {
		return fmt.Errorf("no search result at index %d", i)
	}
	picked := results[i]

	o.search.Clear()

	_, platform := lib.Classify(picked.URL)
	o.input = picked.URL
	o.mode = models.InputModeURL
	o.upload = nil

	o.store.Update(func(s *Snapshot) {
		s.Input = picked.URL
		s.Mode = models.InputModeURL
		s.Platform = platform
		s.Upload = nil
		s.SubmitError = ""
	})

	if o.catalog != nil {
		o.catalog.Start(o.ctx, picked.URL)
	}
	return nil
}

// SetUpload attaches a local file as the job source (stems and karaoke)
func (o *Orchestrator) SetUpload(upload *models.Upload) error {
	if o.kind == models.PipelineDownload {
		return fmt.Errorf("%w: download takes URLs only", ErrNotSupported)
	}
	if upload == nil || len(upload.Data) == 0 {
		return fmt.Errorf("upload is empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return lib.ErrClosed
	}

	o.search.Clear()

	o.input = ""
	o.mode = models.InputModeUpload
	o.upload = upload
	info := upload.Info()

	o.store.Update(func(s *Snapshot) {
		s.Input = ""
		s.Mode = models.InputModeUpload
		s.Platform = ""
		s.Upload = &info
		s.SubmitError = ""
	})
	return nil
}

// SetOutputKind switches the download between video and audio formats
func (o *Orchestrator) SetOutputKind(kind models.MediaKind) error {
	if o.catalog == nil {
		return fmt.Errorf("%w: output kind applies to downloads", ErrNotSupported)
	}
	return o.catalog.SetOutputKind(kind)
}

// SelectFormat picks a download format of the active output kind
func (o *Orchestrator) SelectFormat(formatID string) error {
	if o.catalog == nil {
		return fmt.Errorf("%w: formats apply to downloads", ErrNotSupported)
	}
	return o.catalog.Select(formatID)
}

// SetOutputFormat chooses the container of separated tracks
func (o *Orchestrator) SetOutputFormat(format string) error {
	if o.kind == models.PipelineDownload {
		return fmt.Errorf("%w: output format applies to stems and karaoke", ErrNotSupported)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != models.OutputFormatMP3 && format != models.OutputFormatWAV {
		return fmt.Errorf("output format must be %s or %s, got %q", models.OutputFormatMP3, models.OutputFormatWAV, format)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return lib.ErrClosed
	}
	o.outputFormat = format
	o.store.Update(func(s *Snapshot) { s.OutputFormat = format })
	return nil
}

// SetStems chooses which stems to produce; an empty selection means all
func (o *Orchestrator) SetStems(stems []string) error {
	if o.kind != models.PipelineStems {
		return fmt.Errorf("%w: stem selection applies to stems", ErrNotSupported)
	}
	normalized := models.NormalizeStems(stems)
	for _, s := range normalized {
		if !models.IsValidStem(s) {
			return fmt.Errorf("unknown stem %q", s)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return lib.ErrClosed
	}
	o.stems = normalized
	o.store.Update(func(s *Snapshot) { s.Stems = normalized })
	return nil
}

// BuildRequest assembles and validates the request the next Submit would send
func (o *Orchestrator) BuildRequest() (models.JobRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buildRequestLocked()
}

func (o *Orchestrator) buildRequestLocked() (models.JobRequest, error) {
	req := models.JobRequest{Kind: o.kind}
	source := strings.TrimSpace(o.input)

	switch {
	case o.mode == models.InputModeUpload && o.upload != nil:
		req.Upload = o.upload
	case o.mode == models.InputModeURL && source != "":
		req.URL = source
	default:
		if o.kind == models.PipelineDownload {
			return req, lib.ErrInvalidRequest("enter a media URL or pick a search result", nil)
		}
		return req, lib.ErrInvalidRequest("enter a media URL, pick a search result or attach a file", nil)
	}

	if o.catalog != nil {
		cs := o.catalog.State()
		req.FormatID = cs.Selected
		req.MediaKind = cs.OutputKind
	} else {
		req.OutputFormat = o.outputFormat
		if o.kind == models.PipelineStems {
			req.Stems = o.stems
		}
	}

	if err := lib.ValidateRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

// Submit builds the request from the current selections and starts a job.
// It returns once the backend accepted or rejected the job; progress then
// arrives through the store.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return lib.ErrClosed
	}
	req, err := o.buildRequestLocked()
	if err != nil {
		o.store.Update(func(s *Snapshot) { s.SubmitError = err.Error() })
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	state, err := o.jobs.Submit(ctx, req)
	switch {
	case err == nil:
		o.store.Update(func(s *Snapshot) { s.SubmitError = "" })
		o.logger.Debug("Job accepted", "job_id", state.JobID, "queue_position", state.QueuePosition)
		return nil
	case errors.Is(err, lib.ErrJobActive), errors.Is(err, ErrSuperseded), errors.Is(err, lib.ErrClosed):
		return err
	default:
		o.store.Update(func(s *Snapshot) { s.SubmitError = state.Message })
		return err
	}
}

// Job returns the controller of the pipeline's job
func (o *Orchestrator) Job() *JobController {
	return o.jobs
}

// Close stops all timers, requests and polling and ends subscriptions
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.debouncer.Cancel()
	o.search.Close()
	if o.catalog != nil {
		o.catalog.Close()
	}
	o.jobs.Teardown()
	o.cancel()
	o.mu.Unlock()

	o.store.Close()
}
