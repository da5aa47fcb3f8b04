package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

func TestAcceptSubmission(t *testing.T) {
	state := models.AcceptSubmission(models.SubmitResponse{JobID: "j1", Status: models.JobStatusQueued, QueuePosition: 2})
	assert.Equal(t, models.JobStatusQueued, state.Status)
	assert.Equal(t, "j1", state.JobID)
	assert.Equal(t, 2, state.QueuePosition)

	// An unexpected envelope status still starts the job as queued
	state = models.AcceptSubmission(models.SubmitResponse{JobID: "j2", Status: "pending"})
	assert.Equal(t, models.JobStatusQueued, state.Status)

	state = models.AcceptSubmission(models.SubmitResponse{JobID: "j3", Status: models.JobStatusProcessing})
	assert.Equal(t, models.JobStatusProcessing, state.Status)
}

func TestFailSubmission(t *testing.T) {
	state := models.FailSubmission("URL not supported")
	assert.Equal(t, models.JobStatusError, state.Status)
	assert.Equal(t, "URL not supported", state.Message)
	assert.Empty(t, state.JobID)

	_, ok := models.HandleOf(models.PipelineDownload, state)
	assert.False(t, ok)
}

func TestApplyPoll(t *testing.T) {
	queued := models.JobState{Status: models.JobStatusQueued, JobID: "j1"}

	t.Run("snapshot replaces state", func(t *testing.T) {
		polled := models.JobState{Status: models.JobStatusProcessing, JobID: "j1", Progress: 40, Message: "Downloading"}
		next, ok := models.ApplyPoll(queued, polled)
		assert.True(t, ok)
		assert.Equal(t, polled, next)
	})

	t.Run("missing job id inherited", func(t *testing.T) {
		next, ok := models.ApplyPoll(queued, models.JobState{Status: models.JobStatusProcessing, Progress: 10})
		assert.True(t, ok)
		assert.Equal(t, "j1", next.JobID)
	})

	t.Run("other job discarded", func(t *testing.T) {
		next, ok := models.ApplyPoll(queued, models.JobState{Status: models.JobStatusDone, JobID: "j2"})
		assert.False(t, ok)
		assert.Equal(t, queued, next)
	})

	t.Run("terminal state absorbs", func(t *testing.T) {
		done := models.JobState{Status: models.JobStatusDone, JobID: "j1", Progress: 100}
		next, ok := models.ApplyPoll(done, models.JobState{Status: models.JobStatusProcessing, JobID: "j1", Progress: 50})
		assert.False(t, ok)
		assert.Equal(t, done, next)
	})

	t.Run("illegal transition discarded", func(t *testing.T) {
		_, ok := models.ApplyPoll(models.IdleState(), models.JobState{Status: models.JobStatusDone, JobID: "j1"})
		assert.False(t, ok)
	})
}

func TestHandleOf(t *testing.T) {
	h, ok := models.HandleOf(models.PipelineStems, models.JobState{Status: models.JobStatusDone, JobID: "s1"})
	assert.True(t, ok)
	assert.Equal(t, models.JobHandle{JobID: "s1", Kind: models.PipelineStems}, h)

	_, ok = models.HandleOf(models.PipelineStems, models.StartSubmission())
	assert.False(t, ok)
}
