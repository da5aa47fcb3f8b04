package services_test

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
	"github.com/ytdlstem/ytdlstem/internal/services"
)

// scriptedFetcher returns one scripted result per call; the last one repeats
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	delay   time.Duration
}

type fetchResult struct {
	state models.JobState
	err   error
}

func (f *scriptedFetcher) Status(ctx context.Context, handle models.JobHandle) (models.JobState, error) {
	f.mu.Lock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	f.calls++
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.JobState{}, ctx.Err()
		}
	}
	r.state.JobID = handle.JobID
	return r.state, r.err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type updates struct {
	mu     sync.Mutex
	states []models.JobState
}

func (u *updates) add(s models.JobState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.states = append(u.states, s)
}

func (u *updates) all() []models.JobState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]models.JobState(nil), u.states...)
}

var testHandle = models.JobHandle{JobID: "j1", Kind: models.PipelineStems}

func TestJobPoller_PollsUntilTerminal(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{state: models.JobState{Status: models.JobStatusQueued, QueuePosition: 1}},
		{state: models.JobState{Status: models.JobStatusProcessing, Progress: 50}},
		{state: models.JobState{Status: models.JobStatusDone, Progress: 100}},
	}}
	got := &updates{}

	p := services.NewJobPoller(fetcher, testHandle, 5*time.Millisecond, lib.NewNullLogger())
	p.Start(context.Background(), got.add)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop at the terminal state")
	}

	states := got.all()
	require.Len(t, states, 3)
	assert.Equal(t, models.JobStatusDone, states[2].Status)
	assert.Equal(t, 3, p.PollCount())
	assert.Equal(t, testHandle, p.Handle())
}

func TestJobPoller_FirstPollWaitsOneInterval(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{state: models.JobState{Status: models.JobStatusDone}}}}

	p := services.NewJobPoller(fetcher, testHandle, 100*time.Millisecond, lib.NewNullLogger())
	p.Start(context.Background(), func(models.JobState) {})
	defer p.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, fetcher.Calls())
}

func TestJobPoller_ErrorsAreSwallowed(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: errors.New("connection reset")},
		{err: errors.New("HTTP 404")},
		{state: models.JobState{Status: models.JobStatusError, Message: "failed"}},
	}}
	got := &updates{}

	p := services.NewJobPoller(fetcher, testHandle, 5*time.Millisecond, lib.NewNullLogger())
	p.Start(context.Background(), got.add)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish")
	}

	states := got.all()
	require.Len(t, states, 1)
	assert.Equal(t, models.JobStatusError, states[0].Status)
	assert.Equal(t, 3, fetcher.Calls())
}

func TestJobPoller_StopDropsInFlightResponse(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []fetchResult{{state: models.JobState{Status: models.JobStatusDone}}},
		delay:   100 * time.Millisecond,
	}
	got := &updates{}

	p := services.NewJobPoller(fetcher, testHandle, 5*time.Millisecond, lib.NewNullLogger())
	p.Start(context.Background(), got.add)

	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()

	<-p.Done()
	assert.Empty(t, got.all())
}

func TestJobPoller_StopFromCallback(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{state: models.JobState{Status: models.JobStatusProcessing}}}}

	var p *services.JobPoller
	calls := 0
	p = services.NewJobPoller(fetcher, testHandle, 5*time.Millisecond, lib.NewNullLogger())
	p.Start(context.Background(), func(models.JobState) {
		calls++
		p.Stop()
	})

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Stop from inside the callback must end the loop")
	}
	assert.Equal(t, 1, calls)
}

func TestJobPoller_StopBeforeStart(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{state: models.JobState{Status: models.JobStatusDone}}}}

	p := services.NewJobPoller(fetcher, testHandle, time.Millisecond, lib.NewNullLogger())
	p.Stop()
	p.Start(context.Background(), func(models.JobState) { t.Error("no update expected") })

	<-p.Done()
	assert.Equal(t, 0, fetcher.Calls())
}

func TestJobPoller_ParentContextCancel(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{state: models.JobState{Status: models.JobStatusQueued}}}}
	ctx, cancel := context.WithCancel(context.Background())

	p := services.NewJobPoller(fetcher, testHandle, 5*time.Millisecond, lib.NewNullLogger())
	p.Start(ctx, func(models.JobState) {})

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller ignored context cancellation")
	}
}
