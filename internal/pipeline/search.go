package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

// Searcher runs a free-text search against the backend
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// SearchConfig tunes a SearchController
type SearchConfig struct {
	Delay          time.Duration
	MinQueryLength int
	MaxResults     int // 0 keeps every result
}

// SearchController turns keystrokes into at most one backend search per pause
// in typing. Every input bumps a generation; responses from an older
// generation are dropped.
type SearchController struct {
	searcher  Searcher
	debouncer *lib.Debouncer
	cfg       SearchConfig
	logger    *lib.Logger
	publish   func(SearchState)
	baseCtx   context.Context

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  SearchState
	closed bool
}

// NewSearchController creates a controller. publish receives every state
// change while the controller's lock is held and must not call back into it.
func NewSearchController(ctx context.Context, searcher Searcher, debouncer *lib.Debouncer, cfg SearchConfig, logger *lib.Logger, publish func(SearchState)) *SearchController {
	if cfg.MinQueryLength < 1 {
		cfg.MinQueryLength = 1
	}
	if publish == nil {
		publish = func(SearchState) {}
	}
	return &SearchController{
		searcher:  searcher,
		debouncer: debouncer,
		cfg:       cfg,
		logger:    logger,
		publish:   publish,
		baseCtx:   ctx,
		state:     SearchState{Status: SearchIdle},
	}
}

// State returns the current search state
func (s *SearchController) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnInput handles a change of the input text
func (s *SearchController) OnInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.gen++
	s.abortLocked()

	mode, _ := lib.Classify(text)
	query := strings.TrimSpace(text)
	if mode != models.InputModeSearch || utf8.RuneCountInString(query) < s.cfg.MinQueryLength {
		s.debouncer.Cancel()
		s.setLocked(SearchState{Status: SearchIdle})
		return
	}

	gen := s.gen
	s.setLocked(SearchState{Status: SearchDebouncing, Query: query})
	s.debouncer.Schedule(func() { s.run(gen, query) }, s.cfg.Delay)
}

func (s *SearchController) run(gen uint64, query string) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.setLocked(SearchState{Status: SearchSearching, Query: query})
	s.mu.Unlock()

	results, err := s.searcher.Search(ctx, query)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		s.logger.Debug("Dropping stale search response", "query", query)
		return
	}
	s.cancel = nil

	if err != nil {
		s.logger.Debug("Search failed", "query", query, "error", err)
		s.setLocked(SearchState{Status: SearchFailed, Query: query})
		return
	}

	if s.cfg.MaxResults > 0 && len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}
	s.setLocked(SearchState{Status: SearchReady, Query: query, Results: results})
}

// Clear drops pending and in-flight work and empties the results.
// Used when a result is picked or the input switches to an upload.
func (s *SearchController) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	s.abortLocked()
	s.debouncer.Cancel()
	s.setLocked(SearchState{Status: SearchIdle})
}

// Close tears the controller down; later calls are no-ops
func (s *SearchController) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	s.abortLocked()
	s.debouncer.Cancel()
	s.closed = true
}

func (s *SearchController) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *SearchController) setLocked(state SearchState) {
	if state.Results == nil {
		state.Results = []models.SearchResult{}
	}
	s.state = state
	s.publish(state)
}
