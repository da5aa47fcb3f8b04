package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

// FormatLister fetches the format catalog of a media URL
type FormatLister interface {
	Formats(ctx context.Context, source string) (*models.FormatSet, error)
}

// FormatCatalog holds the formats of the current source URL and the user's
// format choice. The default choice is applied once per successful fetch.
type FormatCatalog struct {
	lister  FormatLister
	logger  *lib.Logger
	publish func(CatalogState)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  CatalogState
	closed bool
}

// NewFormatCatalog creates an empty catalog showing video formats.
// publish receives every state change while the catalog's lock is held.
func NewFormatCatalog(lister FormatLister, logger *lib.Logger, publish func(CatalogState)) *FormatCatalog {
	if publish == nil {
		publish = func(CatalogState) {}
	}
	return &FormatCatalog{
		lister:  lister,
		logger:  logger,
		publish: publish,
		state: CatalogState{
			OutputKind: models.MediaKindVideo,
			Selected:   models.BestFormatID,
		},
	}
}

// State returns the current catalog state
func (c *FormatCatalog) State() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fetch loads the formats of source and blocks until the fetch completes or
// is superseded. A failed fetch leaves the selection at "best".
func (c *FormatCatalog) Fetch(ctx context.Context, source string) error {
	gen, fctx, ok := c.begin(ctx, source)
	if !ok {
		return lib.ErrClosed
	}
	return c.complete(fctx, gen, source)
}

// Start begins a fetch and returns once the catalog shows it as loading.
// The result arrives through the publish callback.
func (c *FormatCatalog) Start(ctx context.Context, source string) {
	gen, fctx, ok := c.begin(ctx, source)
	if !ok {
		return
	}
	go func() { _ = c.complete(fctx, gen, source) }()
}

func (c *FormatCatalog) begin(ctx context.Context, source string) (uint64, context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, false
	}

	c.gen++
	c.abortLocked()
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.setLocked(CatalogState{
		Loading:    true,
		Source:     source,
		OutputKind: c.state.OutputKind,
		Selected:   models.BestFormatID,
	})
	return c.gen, fctx, true
}

func (c *FormatCatalog) complete(ctx context.Context, gen uint64, source string) error {
	formats, err := c.lister.Formats(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		c.logger.Debug("Dropping stale format response", "source", source)
		return ErrSuperseded
	}
	c.abortLocked()

	next := CatalogState{
		Source:     source,
		OutputKind: c.state.OutputKind,
		Selected:   models.BestFormatID,
	}
	if err != nil {
		c.logger.Debug("Format fetch failed", "source", source, "error", err)
		next.Err = err.Error()
		c.setLocked(next)
		return err
	}

	fs := models.FormatSet{}
	if formats != nil {
		fs = *formats
	}
	fs.Normalize()
	next.Formats = &fs
	if rec, ok := fs.Recommended(next.OutputKind); ok {
		next.Selected = rec.FormatID
	}
	c.setLocked(next)
	return nil
}

// SetOutputKind switches between video and audio formats. The selection is
// kept when the new list contains it, and falls back to "best" otherwise or
// when the new list has no recommended entry.
func (c *FormatCatalog) SetOutputKind(kind models.MediaKind) error {
	if !models.IsValidMediaKind(kind) {
		return fmt.Errorf("unknown output kind %q", kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return lib.ErrClosed
	}

	next := c.state
	next.OutputKind = kind

	_, hasRecommended := next.Formats.Recommended(kind)
	_, stillListed := next.Formats.Find(kind, next.Selected)
	if !hasRecommended || !stillListed {
		next.Selected = models.BestFormatID
	}

	c.setLocked(next)
	return nil
}

// Select picks a format of the active output kind, or "best"
func (c *FormatCatalog) Select(formatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return lib.ErrClosed
	}

	if formatID != models.BestFormatID {
		if _, ok := c.state.Formats.Find(c.state.OutputKind, formatID); !ok {
			return fmt.Errorf("format %q is not available as %s", formatID, c.state.OutputKind)
		}
	}

	next := c.state
	next.Selected = formatID
	c.setLocked(next)
	return nil
}

// Reset forgets the current source and cancels any fetch in flight
func (c *FormatCatalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.gen++
	c.abortLocked()
	if c.state.Source == "" && c.state.Formats == nil && !c.state.Loading && c.state.Err == "" {
		return
	}
	c.setLocked(CatalogState{OutputKind: c.state.OutputKind, Selected: models.BestFormatID})
}

// Close tears the catalog down; later calls are no-ops
func (c *FormatCatalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.gen++
	c.abortLocked()
	c.closed = true
}

func (c *FormatCatalog) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *FormatCatalog) setLocked(state CatalogState) {
	c.state = state
	c.publish(state)
}
