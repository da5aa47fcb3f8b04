package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Sink is a destination for fetched artifacts, rooted at one directory or prefix
type Sink interface {
	// Put stores data under name and returns the location it was written to
	Put(ctx context.Context, name string, data io.Reader) (string, error)

	// Exists checks if an object with the given name is already stored
	Exists(ctx context.Context, name string) (bool, error)

	// Location returns where name would be stored, without writing anything
	Location(name string) string
}

// NewForURI picks a sink from an output location.
// s3://bucket/prefix selects S3; file:// URIs and plain paths select the local filesystem.
func NewForURI(ctx context.Context, uri string) (Sink, error) {
	if uri == "" {
		return nil, fmt.Errorf("output location cannot be empty")
	}

	if !strings.Contains(uri, "://") {
		return NewLocalSink(uri), nil
	}

	scheme, path, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "file":
		return NewLocalSink(path), nil
	case "s3":
		bucket, prefix := splitBucket(path)
		if bucket == "" {
			return nil, fmt.Errorf("invalid S3 URI: missing bucket name")
		}
		return NewS3Sink(ctx, bucket, prefix)
	default:
		return nil, fmt.Errorf("unsupported output scheme %s://", scheme)
	}
}

// ParseURI parses a URI and returns scheme and path
func ParseURI(uri string) (scheme string, path string, err error) {
	if uri == "" {
		return "", "", fmt.Errorf("URI cannot be empty")
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid URI: %w", err)
	}

	if parsed.Scheme == "" {
		return "", "", fmt.Errorf("URI must have a scheme (e.g., file://, s3://)")
	}

	if parsed.Scheme == "file" {
		return parsed.Scheme, parsed.Path, nil
	}

	// s3://bucket/key/path keeps the bucket in front of the key
	path = parsed.Host
	if parsed.Path != "" {
		path = path + parsed.Path
	}

	return parsed.Scheme, path, nil
}

// SafeName strips path separators and parent references from a backend-supplied filename
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "artifact"
	}
	return name
}

func splitBucket(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix
}
