package models

// StartSubmission returns the state shown while a submit request is in flight
// Pure function - returns new instance
func StartSubmission() JobState {
	return JobState{
		Status:  JobStatusSubmitting,
		Message: "Submitting...",
	}
}

// AcceptSubmission returns the first state of an accepted job
// Pure function - returns new instance
func AcceptSubmission(resp SubmitResponse) JobState {
	status := resp.Status
	if status != JobStatusProcessing {
		status = JobStatusQueued
	}
	return JobState{
		Status:        status,
		JobID:         resp.JobID,
		Progress:      0,
		QueuePosition: resp.QueuePosition,
	}
}

// FailSubmission returns the error state of a rejected submission (no job was created)
// Pure function - returns new instance
func FailSubmission(errorMsg string) JobState {
	return JobState{
		Status:  JobStatusError,
		Message: errorMsg,
	}
}

// ApplyPoll replaces the current state with a polled snapshot.
// Returns false when the update must be discarded: the current state is terminal,
// the snapshot belongs to another job, or the transition is not allowed.
// Pure function - no mutations
func ApplyPoll(current JobState, polled JobState) (JobState, bool) {
	if current.Status.IsTerminal() {
		return current, false
	}
	if polled.JobID != "" && current.JobID != "" && polled.JobID != current.JobID {
		return current, false
	}
	if !current.Status.CanTransitionTo(polled.Status) {
		return current, false
	}
	if polled.JobID == "" {
		polled.JobID = current.JobID
	}
	return polled, true
}

// HandleOf returns the handle of the job described by a state
func HandleOf(kind PipelineKind, state JobState) (JobHandle, bool) {
	if state.JobID == "" {
		return JobHandle{}, false
	}
	return JobHandle{JobID: state.JobID, Kind: kind}, true
}
