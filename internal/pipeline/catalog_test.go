package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
)

type stubLister struct {
	mu    sync.Mutex
	sets  map[string]*models.FormatSet
	gates map[string]chan struct{}
	err   error
}

func newStubLister() *stubLister {
	return &stubLister{sets: map[string]*models.FormatSet{}, gates: map[string]chan struct{}{}}
}

func (l *stubLister) Formats(ctx context.Context, source string) (*models.FormatSet, error) {
	l.mu.Lock()
	fs := l.sets[source]
	gate := l.gates[source]
	err := l.err
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func newCatalog(lister pipeline.FormatLister) *pipeline.FormatCatalog {
	return pipeline.NewFormatCatalog(lister, lib.NewNullLogger(), nil)
}

func TestFormatCatalog_InitialState(t *testing.T) {
	c := newCatalog(newStubLister())
	state := c.State()

	assert.Equal(t, models.MediaKindVideo, state.OutputKind)
	assert.Equal(t, models.BestFormatID, state.Selected)
	assert.Nil(t, state.Formats)
	assert.False(t, state.Loading)
}

func TestFormatCatalog_FetchSelectsRecommended(t *testing.T) {
	lister := newStubLister()
	lister.sets["https://youtu.be/abc"] = sampleFormats()
	c := newCatalog(lister)

	require.NoError(t, c.Fetch(context.Background(), "https://youtu.be/abc"))

	state := c.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "https://youtu.be/abc", state.Source)
	assert.Equal(t, "22", state.Selected)
	require.NotNil(t, state.Formats)
	assert.Len(t, state.Formats.VideoFormats, 2)
}

func TestFormatCatalog_NoRecommendedFallsBackToBest(t *testing.T) {
	lister := newStubLister()
	lister.sets["u"] = &models.FormatSet{
		VideoFormats: []models.FormatDescriptor{{FormatID: "137"}, {FormatID: "22"}},
	}
	c := newCatalog(lister)

	require.NoError(t, c.Fetch(context.Background(), "u"))
	assert.Equal(t, models.BestFormatID, c.State().Selected)
}

func TestFormatCatalog_FirstRecommendedWins(t *testing.T) {
	fs := &models.FormatSet{
		VideoFormats: []models.FormatDescriptor{
			{FormatID: "a", Recommended: true},
			{FormatID: "b", Recommended: true},
		},
	}
	lister := newStubLister()
	lister.sets["u"] = fs
	c := newCatalog(lister)

	require.NoError(t, c.Fetch(context.Background(), "u"))
	assert.Equal(t, "a", c.State().Selected)
	assert.False(t, c.State().Formats.VideoFormats[1].Recommended)
	assert.True(t, fs.VideoFormats[1].Recommended, "lister's set must not be modified")
}

func TestFormatCatalog_SetOutputKind(t *testing.T) {
	tests := []struct {
		name     string
		formats  *models.FormatSet
		selected string
		switchTo models.MediaKind
		want     string
	}{
		{
			name:     "recommended video not listed as audio",
			formats:  sampleFormats(),
			selected: "22",
			switchTo: models.MediaKindAudio,
			want:     models.BestFormatID,
		},
		{
			name: "selection listed in both kinds is kept",
			formats: &models.FormatSet{
				VideoFormats: []models.FormatDescriptor{{FormatID: "18", Recommended: true}},
				AudioFormats: []models.FormatDescriptor{{FormatID: "18"}, {FormatID: "140", Recommended: true}},
			},
			selected: "18",
			switchTo: models.MediaKindAudio,
			want:     "18",
		},
		{
			name: "no recommended entry in new kind",
			formats: &models.FormatSet{
				VideoFormats: []models.FormatDescriptor{{FormatID: "18", Recommended: true}},
				AudioFormats: []models.FormatDescriptor{{FormatID: "18"}},
			},
			selected: "18",
			switchTo: models.MediaKindAudio,
			want:     models.BestFormatID,
		},
		{
			name:     "same kind keeps selection",
			formats:  sampleFormats(),
			selected: "137",
			switchTo: models.MediaKindVideo,
			want:     "137",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := newStubLister()
			lister.sets["u"] = tt.formats
			c := newCatalog(lister)
			require.NoError(t, c.Fetch(context.Background(), "u"))
			require.NoError(t, c.Select(tt.selected))

			require.NoError(t, c.SetOutputKind(tt.switchTo))
			assert.Equal(t, tt.switchTo, c.State().OutputKind)
			assert.Equal(t, tt.want, c.State().Selected)
		})
	}
}

func TestFormatCatalog_SetOutputKindRejectsUnknown(t *testing.T) {
	c := newCatalog(newStubLister())
	assert.Error(t, c.SetOutputKind("podcast"))
	assert.Equal(t, models.MediaKindVideo, c.State().OutputKind)
}

func TestFormatCatalog_Select(t *testing.T) {
	lister := newStubLister()
	lister.sets["u"] = sampleFormats()
	c := newCatalog(lister)
	require.NoError(t, c.Fetch(context.Background(), "u"))

	require.NoError(t, c.Select("137"))
	assert.Equal(t, "137", c.State().Selected)

	assert.Error(t, c.Select("140"), "audio format is not selectable while showing video")
	assert.Equal(t, "137", c.State().Selected)

	require.NoError(t, c.Select(models.BestFormatID))
	assert.Equal(t, models.BestFormatID, c.State().Selected)
}

func TestFormatCatalog_FetchFailure(t *testing.T) {
	lister := newStubLister()
	lister.err = errors.New("extractor failed")
	c := newCatalog(lister)

	err := c.Fetch(context.Background(), "u")
	require.Error(t, err)

	state := c.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "extractor failed", state.Err)
	assert.Equal(t, models.BestFormatID, state.Selected)
}

func TestFormatCatalog_NewerFetchSupersedesOlder(t *testing.T) {
	lister := newStubLister()
	gate := make(chan struct{})
	lister.gates["old"] = gate
	lister.sets["old"] = &models.FormatSet{VideoFormats: []models.FormatDescriptor{{FormatID: "old", Recommended: true}}}
	lister.sets["new"] = &models.FormatSet{VideoFormats: []models.FormatDescriptor{{FormatID: "new", Recommended: true}}}
	c := newCatalog(lister)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Fetch(context.Background(), "old") }()
	require.Eventually(t, func() bool { return c.State().Source == "old" }, time.Second, time.Millisecond)

	require.NoError(t, c.Fetch(context.Background(), "new"))
	close(gate)

	assert.ErrorIs(t, <-errCh, pipeline.ErrSuperseded)
	assert.Equal(t, "new", c.State().Source)
	assert.Equal(t, "new", c.State().Selected)
}

func TestFormatCatalog_StartShowsLoadingImmediately(t *testing.T) {
	lister := newStubLister()
	gate := make(chan struct{})
	lister.gates["u"] = gate
	lister.sets["u"] = sampleFormats()
	c := newCatalog(lister)

	c.Start(context.Background(), "u")
	assert.True(t, c.State().Loading)

	close(gate)
	require.Eventually(t, func() bool { return !c.State().Loading }, time.Second, time.Millisecond)
	assert.Equal(t, "22", c.State().Selected)
}

func TestFormatCatalog_ResetKeepsOutputKind(t *testing.T) {
	lister := newStubLister()
	lister.sets["u"] = sampleFormats()
	c := newCatalog(lister)
	require.NoError(t, c.Fetch(context.Background(), "u"))
	require.NoError(t, c.SetOutputKind(models.MediaKindAudio))

	c.Reset()

	state := c.State()
	assert.Nil(t, state.Formats)
	assert.Empty(t, state.Source)
	assert.Equal(t, models.MediaKindAudio, state.OutputKind)
	assert.Equal(t, models.BestFormatID, state.Selected)
}

func TestFormatCatalog_ClosedCatalogRejectsWork(t *testing.T) {
	c := newCatalog(newStubLister())
	c.Close()

	assert.ErrorIs(t, c.Fetch(context.Background(), "u"), lib.ErrClosed)
	assert.ErrorIs(t, c.Select(models.BestFormatID), lib.ErrClosed)
}
