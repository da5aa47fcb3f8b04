package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/services"
)

// JobBackend submits jobs and reports their status
type JobBackend interface {
	Submit(ctx context.Context, req models.JobRequest) (models.SubmitResponse, error)
	services.StatusFetcher
}

// JobController owns the single active job of one pipeline: it submits the
// job, runs its poller and folds poll results into one JobState.
type JobController struct {
	kind     models.PipelineKind
	backend  JobBackend
	interval time.Duration
	logger   *lib.Logger
	publish  func(models.JobState)
	baseCtx  context.Context

	mu     sync.Mutex
	gen    uint64
	state  models.JobState
	poller *services.JobPoller
	closed bool
}

// NewJobController creates an idle controller. publish receives every state
// change while the controller's lock is held and must not call back into it.
func NewJobController(ctx context.Context, kind models.PipelineKind, backend JobBackend, interval time.Duration, logger *lib.Logger, publish func(models.JobState)) *JobController {
	if publish == nil {
		publish = func(models.JobState) {}
	}
	return &JobController{
		kind:     kind,
		backend:  backend,
		interval: interval,
		logger:   logger,
		publish:  publish,
		baseCtx:  ctx,
		state:    models.IdleState(),
	}
}

// State returns the current job state
func (c *JobController) State() models.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle returns the handle of the current job, if one was accepted
func (c *JobController) Handle() (models.JobHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.HandleOf(c.kind, c.state)
}

// CanSubmit reports whether a new job may be started
func (c *JobController) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.state.Status.IsActive()
}

// Submit starts a new job. While a job is in flight it returns
// lib.ErrJobActive and leaves the current job untouched.
func (c *JobController) Submit(ctx context.Context, req models.JobRequest) (models.JobState, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.JobState{}, lib.ErrClosed
	}
	if c.state.Status.IsActive() {
		state := c.state
		c.mu.Unlock()
		return state, lib.ErrJobActive
	}

	c.stopPollerLocked()
	c.gen++
	gen := c.gen
	c.setLocked(models.StartSubmission())
	c.mu.Unlock()

	resp, err := c.backend.Submit(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return c.state, ErrSuperseded
	}

	if err != nil {
		message, status := submissionFailure(err)
		c.logger.Warn("Job submission rejected", "pipeline", c.kind, "error", err)
		c.setLocked(models.FailSubmission(message))
		appErr := lib.ErrSubmissionRejected(string(c.kind), status, message)
		appErr.Cause = err
		return c.state, appErr
	}

	c.setLocked(models.AcceptSubmission(resp))

	handle := models.JobHandle{JobID: resp.JobID, Kind: c.kind}
	poller := services.NewJobPoller(c.backend, handle, c.interval, c.logger)
	c.poller = poller
	poller.Start(c.baseCtx, func(state models.JobState) {
		c.handleUpdate(gen, handle.JobID, state)
	})

	return c.state, nil
}

func (c *JobController) handleUpdate(gen uint64, jobID string, polled models.JobState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen || c.state.JobID != jobID {
		return
	}

	next, ok := models.ApplyPoll(c.state, polled)
	if !ok {
		return
	}
	c.setLocked(next)

	if next.Status.IsTerminal() {
		lib.LogJobFinished(c.logger, string(c.kind), jobID, string(next.Status), next.Message)
		c.stopPollerLocked()
	}
}

// Teardown stops polling for good. Responses still in flight are dropped.
func (c *JobController) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPollerLocked()
	c.gen++
	c.closed = true
}

// PollCount returns how many status requests the current job's poller issued
func (c *JobController) PollCount() int {
	c.mu.Lock()
	p := c.poller
	c.mu.Unlock()
	if p == nil {
		return 0
	}
	return p.PollCount()
}

func (c *JobController) stopPollerLocked() {
	if c.poller != nil {
		c.poller.Stop()
	}
}

func (c *JobController) setLocked(state models.JobState) {
	c.state = state
	c.publish(state)
}

func submissionFailure(err error) (string, int) {
	var be *services.BackendError
	if errors.As(err, &be) {
		return be.Message, be.StatusCode
	}
	if errors.Is(err, context.Canceled) {
		return "submission cancelled", 0
	}
	return err.Error(), 0
}
