package services

import (
	"context"
	"sync"
	"time"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

// StatusFetcher fetches one status snapshot of a job
type StatusFetcher interface {
	Status(ctx context.Context, handle models.JobHandle) (models.JobState, error)
}

// JobPoller repeatedly fetches the status of one job until it reaches a
// terminal state or is stopped. Requests never overlap: the next wait starts
// only after the previous response (or failure) has been handled.
type JobPoller struct {
	fetcher  StatusFetcher
	handle   models.JobHandle
	interval time.Duration
	logger   *lib.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	pollCount int
	done      chan struct{}
}

// NewJobPoller creates a poller for one job handle
func NewJobPoller(fetcher StatusFetcher, handle models.JobHandle, interval time.Duration, logger *lib.Logger) *JobPoller {
	return &JobPoller{
		fetcher:  fetcher,
		handle:   handle,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Handle returns the job this poller follows
func (p *JobPoller) Handle() models.JobHandle {
	return p.handle
}

// Start launches the polling loop. onUpdate receives every successfully
// fetched snapshot, including the terminal one, from the loop goroutine.
// Calling Start more than once has no effect.
func (p *JobPoller) Start(ctx context.Context, onUpdate func(models.JobState)) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	if p.stopped {
		p.mu.Unlock()
		close(p.done)
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	go p.run(ctx, onUpdate)
}

func (p *JobPoller) run(ctx context.Context, onUpdate func(models.JobState)) {
	defer close(p.done)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.mu.Lock()
		p.pollCount++
		count := p.pollCount
		p.mu.Unlock()

		state, err := p.fetcher.Status(ctx, p.handle)

		if p.isStopped() || ctx.Err() != nil {
			return
		}

		if err != nil {
			p.logger.Debug("Status poll failed", "pipeline", p.handle.Kind, "job_id", p.handle.JobID,
				"attempt", count, "error", err)
		} else {
			onUpdate(state)
			if state.Status.IsTerminal() {
				return
			}
		}

		timer.Reset(p.interval)
	}
}

// Stop ends polling. In-flight requests are cancelled and their responses
// dropped. Stop never blocks and may be called any number of times from any
// goroutine, including from inside onUpdate.
func (p *JobPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
	}
}

// Done is closed once the polling loop has exited
func (p *JobPoller) Done() <-chan struct{} {
	return p.done
}

// PollCount returns the number of status requests issued so far
func (p *JobPoller) PollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pollCount
}

func (p *JobPoller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
