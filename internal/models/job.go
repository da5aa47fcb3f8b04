package models

import "fmt"

// PipelineKind identifies one of the three independent processing surfaces
type PipelineKind string

const (
	PipelineDownload PipelineKind = "download"
	PipelineStems    PipelineKind = "stems"
	PipelineKaraoke  PipelineKind = "karaoke"
)

// AllPipelines lists every pipeline in display order
var AllPipelines = []PipelineKind{PipelineDownload, PipelineStems, PipelineKaraoke}

// IsValidPipelineKind checks if the pipeline kind is recognized
func IsValidPipelineKind(k PipelineKind) bool {
	switch k {
	case PipelineDownload, PipelineStems, PipelineKaraoke:
		return true
	default:
		return false
	}
}

// ParsePipelineKind converts a string to a PipelineKind
func ParsePipelineKind(s string) (PipelineKind, error) {
	k := PipelineKind(s)
	if !IsValidPipelineKind(k) {
		return "", fmt.Errorf("unknown pipeline: %q", s)
	}
	return k, nil
}

// JobStatus is the client-side view of a job's lifecycle
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusSubmitting JobStatus = "submitting"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// IsValidJobStatus checks if the job status is recognized
func IsValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusIdle, JobStatusSubmitting, JobStatusQueued, JobStatusProcessing, JobStatusDone, JobStatusError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can happen for the current job
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// IsActive reports whether a job is in flight (the submit affordance must stay disabled)
func (s JobStatus) IsActive() bool {
	return s == JobStatusSubmitting || s == JobStatusQueued || s == JobStatusProcessing
}

// CanTransitionTo checks if state transition is valid
// Valid transitions:
//
//	idle -> submitting
//	submitting -> queued | processing | error
//	queued -> queued | processing | done | error
//	processing -> processing | queued | done | error
//	done | error -> submitting (a fresh job, never the same one)
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusIdle:
		return next == JobStatusSubmitting
	case JobStatusSubmitting:
		return next == JobStatusQueued || next == JobStatusProcessing || next == JobStatusError
	case JobStatusQueued, JobStatusProcessing:
		return next == JobStatusQueued || next == JobStatusProcessing || next.IsTerminal()
	case JobStatusDone, JobStatusError:
		return next == JobStatusSubmitting
	default:
		return false
	}
}

// JobHandle is the opaque key returned by the backend at submission
type JobHandle struct {
	JobID string       `json:"job_id"`
	Kind  PipelineKind `json:"kind"`
}

// JobState is one complete snapshot of a job; polls replace it wholesale
type JobState struct {
	Status        JobStatus  `json:"status"`
	JobID         string     `json:"job_id,omitempty"`
	Progress      float64    `json:"progress"`
	Message       string     `json:"message,omitempty"`
	QueuePosition int        `json:"queue_position,omitempty"`
	Result        *JobResult `json:"result,omitempty"`
}

// IdleState is the initial state of every surface
func IdleState() JobState {
	return JobState{Status: JobStatusIdle}
}

// JobResult is the payload of a finished job
type JobResult struct {
	Filename string            `json:"filename,omitempty"`
	Title    string            `json:"title,omitempty"`
	Format   string            `json:"format,omitempty"`
	Stems    map[string]string `json:"stems,omitempty"`
	Tracks   map[string]string `json:"tracks,omitempty"`
	Metadata *ResultMetadata   `json:"metadata,omitempty"`
}

// ResultMetadata is the tag data the backend embedded into a downloaded file
type ResultMetadata struct {
	Title    string   `json:"title,omitempty"`
	Artist   string   `json:"artist,omitempty"`
	Album    string   `json:"album,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// SubmitResponse is the envelope of POST /api/{kind}/start
type SubmitResponse struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	QueuePosition int       `json:"queue_position"`
}

// StatusResponse is the envelope of GET /api/{kind}/status/{job_id}
type StatusResponse struct {
	JobID         string     `json:"job_id"`
	Status        JobStatus  `json:"status"`
	Progress      float64    `json:"progress"`
	Message       string     `json:"message"`
	QueuePosition int        `json:"queue_position"`
	Result        *JobResult `json:"result"`
}

// ToState converts a status response into a full JobState
// Only backend-side statuses (queued, processing, done, error) are accepted
func (r StatusResponse) ToState() (JobState, error) {
	switch r.Status {
	case JobStatusQueued, JobStatusProcessing, JobStatusDone, JobStatusError:
	default:
		return JobState{}, fmt.Errorf("unexpected job status %q", r.Status)
	}

	state := JobState{
		Status:        r.Status,
		JobID:         r.JobID,
		Progress:      clampProgress(r.Progress),
		Message:       r.Message,
		QueuePosition: r.QueuePosition,
	}
	if r.Status == JobStatusDone {
		state.Result = r.Result
	}
	return state, nil
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
