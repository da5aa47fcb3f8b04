package pipeline

import (
	"context"
	"sync"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// SearchStatus is the phase of search-as-you-type
type SearchStatus string

const (
	SearchIdle       SearchStatus = "idle"
	SearchDebouncing SearchStatus = "debouncing"
	SearchSearching  SearchStatus = "searching"
	SearchReady      SearchStatus = "ready"
	SearchFailed     SearchStatus = "failed"
)

// SearchState is the displayable state of a SearchController
type SearchState struct {
	Status  SearchStatus          `json:"status"`
	Query   string                `json:"query,omitempty"`
	Results []models.SearchResult `json:"results"`
}

// CatalogState is the displayable state of a FormatCatalog
type CatalogState struct {
	Loading    bool              `json:"loading"`
	Source     string            `json:"source,omitempty"`
	Formats    *models.FormatSet `json:"formats,omitempty"`
	OutputKind models.MediaKind  `json:"output_kind"`
	Selected   string            `json:"selected"`
	Err        string            `json:"error,omitempty"`
}

// Snapshot is an immutable view of one pipeline. Slices and pointers inside a
// snapshot are never modified after publication; updates replace them.
type Snapshot struct {
	Version      uint64               `json:"version"`
	Kind         models.PipelineKind  `json:"kind"`
	Input        string               `json:"input"`
	Mode         models.InputMode     `json:"mode"`
	Platform     models.Platform      `json:"platform"`
	Search       SearchState          `json:"search"`
	Catalog      *CatalogState        `json:"catalog,omitempty"`
	Upload       *models.UploadInfo   `json:"upload,omitempty"`
	OutputFormat string               `json:"output_format,omitempty"`
	Stems        []string             `json:"stems,omitempty"`
	Job          models.JobState      `json:"job"`
	Artifacts    []models.ArtifactRef `json:"artifacts"`
	CanSubmit    bool                 `json:"can_submit"`
	SubmitError  string               `json:"submit_error,omitempty"`
}

// Store holds the current Snapshot of a pipeline and fans it out to subscribers.
// Writers never block on slow subscribers: a full subscriber buffer drops its
// oldest snapshot.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	derive func(*Snapshot)
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// NewStore creates a store holding initial. derive, when set, recomputes
// derived fields after every update.
func NewStore(initial Snapshot, derive func(*Snapshot)) *Store {
	if derive != nil {
		derive(&initial)
	}
	return &Store{
		snap:   initial,
		derive: derive,
		subs:   map[int]chan Snapshot{},
	}
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Update applies fn to a copy of the current snapshot and publishes the result
func (s *Store) Update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap
	fn(&next)
	if s.derive != nil {
		s.derive(&next)
	}
	next.Version = s.snap.Version + 1
	s.snap = next

	for _, ch := range s.subs {
		offer(ch, next)
	}
	return next
}

func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	// Buffer full: drop the oldest pending snapshot and retry once
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Subscribe returns a channel receiving the current snapshot followed by every
// later one, and a function that ends the subscription. The channel is closed
// when the subscription ends or the store is closed.
func (s *Store) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// WaitFor blocks until a snapshot satisfies pred or ctx is done
func (s *Store) WaitFor(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	ch, cancel := s.Subscribe(16)
	defer cancel()

	var last Snapshot
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case snap, ok := <-ch:
			if !ok {
				return last, ErrStoreClosed
			}
			last = snap
			if pred(snap) {
				return snap, nil
			}
		}
	}
}

// Close ends every subscription. Later updates still change the snapshot.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
