package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
)

func labels(refs []models.ArtifactRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Label)
	}
	return out
}

func TestResolve_Download(t *testing.T) {
	handle := models.JobHandle{JobID: "d1", Kind: models.PipelineDownload}

	refs := pipeline.Resolve(handle, &models.JobResult{Filename: "abc.mp4", Title: "Some Video"})
	require.Len(t, refs, 1)
	assert.Equal(t, "Some Video", refs[0].Label)
	assert.Equal(t, "abc.mp4", refs[0].Filename)
	assert.Equal(t, "d1", refs[0].JobID)
	assert.Empty(t, refs[0].SubName)

	refs = pipeline.Resolve(handle, &models.JobResult{Filename: "abc.mp4"})
	require.Len(t, refs, 1)
	assert.Equal(t, "abc.mp4", refs[0].Label)
}

func TestResolve_StemsAddsArchive(t *testing.T) {
	handle := models.JobHandle{JobID: "s1", Kind: models.PipelineStems}
	refs := pipeline.Resolve(handle, &models.JobResult{Stems: map[string]string{
		"drums":  "drums.wav",
		"vocals": "vocals.wav",
	}})

	assert.Equal(t, []string{"vocals", "drums", "all"}, labels(refs))
	assert.Equal(t, "vocals.wav", refs[0].Filename)
	assert.Equal(t, "vocals", refs[0].SubName)

	archive := refs[2]
	assert.True(t, archive.Archive)
	assert.Empty(t, archive.SubName)
	assert.Equal(t, models.ArchiveFilename, archive.Filename)
}

func TestResolve_StemsUnknownNamesSortedLast(t *testing.T) {
	handle := models.JobHandle{JobID: "s1", Kind: models.PipelineStems}
	refs := pipeline.Resolve(handle, &models.JobResult{Stems: map[string]string{
		"piano":  "piano.mp3",
		"bass":   "bass.mp3",
		"guitar": "guitar.mp3",
	}})

	assert.Equal(t, []string{"bass", "guitar", "piano", "all"}, labels(refs))
}

func TestResolve_StemsWithoutFilesHasNoArchive(t *testing.T) {
	handle := models.JobHandle{JobID: "s1", Kind: models.PipelineStems}
	assert.Empty(t, pipeline.Resolve(handle, &models.JobResult{}))
}

func TestResolve_Karaoke(t *testing.T) {
	handle := models.JobHandle{JobID: "k1", Kind: models.PipelineKaraoke}
	refs := pipeline.Resolve(handle, &models.JobResult{Tracks: map[string]string{
		"vocals":       "vocals.mp3",
		"instrumental": "instrumental.mp3",
	}})

	assert.Equal(t, []string{"instrumental", "vocals"}, labels(refs))
	for _, r := range refs {
		assert.False(t, r.Archive)
	}
}

func TestResolve_NothingToResolve(t *testing.T) {
	assert.Nil(t, pipeline.Resolve(models.JobHandle{JobID: "x", Kind: models.PipelineDownload}, nil))
	assert.Nil(t, pipeline.Resolve(models.JobHandle{Kind: models.PipelineDownload}, &models.JobResult{Filename: "a"}))
}
