package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/storage"
	"github.com/ytdlstem/ytdlstem/internal/ui"
)

// ArtifactFetcher downloads finished artifacts from the backend into a storage sink
type ArtifactFetcher struct {
	httpClient  *HTTPClient
	links       *LinkBuilder
	sink        storage.Sink
	retryConfig lib.RetryConfig
	logger      *lib.Logger
	progress    io.Writer
}

// FetchResult is the outcome of fetching one artifact
type FetchResult struct {
	Ref      models.ArtifactRef
	Location string
	Bytes    int64
	Err      error
}

// NewArtifactFetcher creates a fetcher. progress may be nil to disable progress bars.
func NewArtifactFetcher(httpClient *HTTPClient, links *LinkBuilder, sink storage.Sink, retry models.RetryConfig, logger *lib.Logger, progress io.Writer) *ArtifactFetcher {
	return &ArtifactFetcher{
		httpClient:  httpClient.WithoutRetry(),
		links:       links,
		sink:        sink,
		retryConfig: lib.NewRetryConfigFromModel(retry),
		logger:      logger,
		progress:    progress,
	}
}

// Fetch downloads one artifact and stores it in the sink.
// Transient failures restart the whole transfer with exponential backoff.
func (f *ArtifactFetcher) Fetch(ctx context.Context, ref models.ArtifactRef) FetchResult {
	name := ref.DisplayName()
	result := FetchResult{Ref: ref}

	tmp, err := os.CreateTemp("", "ytdlstem-*")
	if err != nil {
		result.Err = lib.ErrStorageWrite(os.TempDir(), err)
		return result
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	source := f.links.URL(ref)
	err = lib.ExecuteWithRetry(ctx, func(ctx context.Context) error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}

		var bar *ui.ProgressBar
		var callback func(int64, int64)
		if f.progress != nil {
			callback = func(n, total int64) {
				if bar == nil {
					bar = ui.NewProgressBarWithWriter(total, name, f.progress)
				}
				_ = bar.Set(n)
			}
		}

		n, err := f.httpClient.DownloadWithProgress(ctx, source, tmp, callback)
		if bar != nil {
			_ = bar.Finish()
		}
		result.Bytes = n
		return err
	}, f.retryConfig, func(err error) bool {
		if be, ok := err.(*BackendError); ok {
			return be.IsRetryable()
		}
		return lib.IsNetworkError(err)
	})
	if err != nil {
		f.logger.Error("Artifact download failed", "job_id", ref.JobID, "artifact", ref.Label, "error", err)
		result.Err = fmt.Errorf("download %s: %w", ref.Label, err)
		return result
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		result.Err = lib.ErrStorageWrite(f.sink.Location(name), err)
		return result
	}

	location, err := f.sink.Put(ctx, name, tmp)
	if err != nil {
		result.Err = lib.ErrStorageWrite(f.sink.Location(name), err)
		return result
	}

	f.logger.Info("Artifact saved", "job_id", ref.JobID, "artifact", ref.Label, "location", location, "bytes", result.Bytes)
	result.Location = location
	return result
}

// FetchAll fetches artifacts one after another in the given order.
// Fetching stops early only when ctx is cancelled.
func (f *ArtifactFetcher) FetchAll(ctx context.Context, refs []models.ArtifactRef) []FetchResult {
	results := make([]FetchResult, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			results = append(results, FetchResult{Ref: ref, Err: ctx.Err()})
			continue
		}
		results = append(results, f.Fetch(ctx, ref))
	}
	return results
}
