package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSink writes artifacts into a directory on the local filesystem
type LocalSink struct {
	dir string
}

// NewLocalSink creates a sink rooted at dir; the directory is created on first write
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

// Location returns the path name would be written to
func (ls *LocalSink) Location(name string) string {
	return filepath.Join(ls.dir, SafeName(name))
}

// Put writes data to a file in the sink directory.
// The file is written under a temporary name and renamed once complete.
func (ls *LocalSink) Put(ctx context.Context, name string, data io.Reader) (string, error) {
	if err := os.MkdirAll(ls.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	path := ls.Location(name)
	tmp, err := os.CreateTemp(ls.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	_, copyErr := io.Copy(tmp, &ctxReader{ctx: ctx, r: data})
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", fmt.Errorf("failed to write file: %w", copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to write file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return path, nil
}

// Exists checks if a file with the given name exists in the sink directory
func (ls *LocalSink) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(ls.Location(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ctxReader stops a copy once its context is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
