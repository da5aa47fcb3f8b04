package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
	"github.com/ytdlstem/ytdlstem/internal/services"
	"github.com/ytdlstem/ytdlstem/internal/testutil"
)

const (
	testPollInterval = 20 * time.Millisecond
	testDebounce     = 40 * time.Millisecond
)

func newBackendClient(fb *testutil.FakeBackend) *services.BackendClient {
	httpClient := services.NewHTTPClient(5*time.Second, models.RetryConfig{
		MaxAttempts:      1,
		InitialBackoffMs: 1,
		MaxBackoffMs:     1,
	}, lib.NewNullLogger())
	return services.NewBackendClient(fb.URL(), httpClient, lib.NewNullLogger())
}

func newOrchestrator(t *testing.T, fb *testutil.FakeBackend, kind models.PipelineKind) *pipeline.Orchestrator {
	t.Helper()
	o := pipeline.NewOrchestrator(newBackendClient(fb), pipeline.Options{
		Kind:           kind,
		PollInterval:   testPollInterval,
		DebounceDelay:  testDebounce,
		MinQueryLength: 2,
	})
	t.Cleanup(o.Close)
	return o
}

func waitFor(t *testing.T, o *pipeline.Orchestrator, pred func(pipeline.Snapshot) bool) pipeline.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	snap, err := o.Store().WaitFor(ctx, pred)
	require.NoError(t, err, "last snapshot: %+v", snap)
	return snap
}

func jobDone(s pipeline.Snapshot) bool {
	return s.Job.Status == models.JobStatusDone
}

func jobTerminal(s pipeline.Snapshot) bool {
	return s.Job.Status.IsTerminal()
}

func ptrFloat(f float64) *float64 { return &f }

func sampleFormats() *models.FormatSet {
	return &models.FormatSet{
		Platform: models.PlatformYouTube,
		Metadata: models.SourceMetadata{Title: "Sample", Duration: ptrFloat(212)},
		VideoFormats: []models.FormatDescriptor{
			{FormatID: "137", Ext: "mp4", Resolution: "1920x1080"},
			{FormatID: "22", Ext: "mp4", Resolution: "1280x720", Recommended: true},
		},
		AudioFormats: []models.FormatDescriptor{
			{FormatID: "140", Ext: "m4a", Recommended: true},
			{FormatID: "251", Ext: "webm"},
		},
	}
}
