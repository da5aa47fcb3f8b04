package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// ProgressBar shows the transfer of one artifact with byte counts and throughput
type ProgressBar struct {
	bar         *progressbar.ProgressBar
	description string
	total       int64
	current     int64
	startTime   time.Time
}

// NewProgressBar creates a byte progress bar writing to stderr.
// total may be -1 when the size is unknown; the bar then renders as a spinner.
func NewProgressBar(total int64, description string) *ProgressBar {
	return NewProgressBarWithWriter(total, description, os.Stderr)
}

// NewProgressBarWithWriter creates a progress bar that writes to a specific writer
func NewProgressBarWithWriter(total int64, description string, writer io.Writer) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(false),
	)

	return &ProgressBar{
		bar:         bar,
		description: description,
		total:       total,
		startTime:   time.Now(),
	}
}

// Set sets the progress bar to a specific value
func (p *ProgressBar) Set(value int64) error {
	p.current = value
	return p.bar.Set64(value)
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() error {
	return p.bar.Finish()
}

// GetPercentage returns current completion percentage (0-100)
func (p *ProgressBar) GetPercentage() float64 {
	if p.total <= 0 {
		return 0
	}
	return (float64(p.current) / float64(p.total)) * 100
}

// GetElapsedTime returns time elapsed since progress bar was created
func (p *ProgressBar) GetElapsedTime() time.Duration {
	return time.Since(p.startTime)
}

// JobProgressBar renders job snapshots as a 0-100 bar. The description shows
// the status, queue position and backend message; an ETA is appended once the
// job has made measurable progress.
type JobProgressBar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	kind  models.PipelineKind
	eta   *ETACalculator
	last  models.JobState
	ended bool
}

// NewJobProgressBar creates a job progress bar that writes to writer
func NewJobProgressBar(kind models.PipelineKind, writer io.Writer) *JobProgressBar {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetDescription(fmt.Sprintf("%-8s submitting", kind)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(false),
	)
	return &JobProgressBar{
		bar:  bar,
		kind: kind,
		eta:  NewETACalculator(),
	}
}

// Update renders one job snapshot
func (j *JobProgressBar) Update(state models.JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ended {
		return
	}
	j.last = state

	if state.Status == models.JobStatusProcessing {
		j.eta.RecordProgress(state.Progress)
	}

	j.bar.Describe(j.describe(state))
	_ = j.bar.Set(int(state.Progress))

	if state.Status.IsTerminal() {
		j.ended = true
		if state.Status == models.JobStatusDone {
			_ = j.bar.Finish()
		}
	}
}

// Last returns the most recently rendered snapshot
func (j *JobProgressBar) Last() models.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func (j *JobProgressBar) describe(state models.JobState) string {
	return fmt.Sprintf("%-8s %s", j.kind, DescribeJobState(state, j.eta))
}

// DescribeJobState returns a one-line summary of a job snapshot.
// eta may be nil.
func DescribeJobState(state models.JobState, eta *ETACalculator) string {
	switch state.Status {
	case models.JobStatusIdle:
		return "idle"
	case models.JobStatusSubmitting:
		return "submitting"
	case models.JobStatusQueued:
		if state.QueuePosition > 0 {
			return fmt.Sprintf("queued (#%d)", state.QueuePosition)
		}
		return "queued"
	case models.JobStatusProcessing:
		line := "processing"
		if state.Message != "" {
			line += ": " + state.Message
		}
		if eta != nil {
			if d, ok := eta.CalculateETA(); ok {
				line += " (eta " + FormatETA(d) + ")"
			}
		}
		return line
	case models.JobStatusDone:
		return "done"
	case models.JobStatusError:
		if state.Message != "" {
			return "failed: " + state.Message
		}
		return "failed"
	default:
		return string(state.Status)
	}
}

// Spinner provides visual feedback for operations with unknown duration
type Spinner struct {
	description string
	startTime   time.Time
	active      bool
	writer      io.Writer
}

// NewSpinner creates a spinner for unknown-duration operations
func NewSpinner(description string, writer io.Writer) *Spinner {
	return &Spinner{
		description: description,
		startTime:   time.Now(),
		writer:      writer,
	}
}

// Start begins the spinner
func (s *Spinner) Start() {
	s.active = true
	s.startTime = time.Now()
	_, _ = fmt.Fprintf(s.writer, "%s...\n", s.description)
}

// Stop ends the spinner
func (s *Spinner) Stop(success bool) {
	s.active = false
	elapsed := time.Since(s.startTime)

	if success {
		_, _ = fmt.Fprintf(s.writer, "✓ %s (completed in %v)\n", s.description, elapsed.Round(time.Millisecond))
	} else {
		_, _ = fmt.Fprintf(s.writer, "✗ %s (failed after %v)\n", s.description, elapsed.Round(time.Millisecond))
	}
}

// IsActive returns whether the spinner is currently running
func (s *Spinner) IsActive() bool {
	return s.active
}
