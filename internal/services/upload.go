package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// MaxUploadBytes bounds the size of a file attached to a stems or karaoke job
const MaxUploadBytes = 500 << 20

// UploadExtensions lists the file types the separation backend can decode
var UploadExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".webm": true,
	".mp4":  true,
}

// ReadUpload loads a local audio file for submission
func ReadUpload(path string) (*models.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxUploadBytes {
		return nil, fmt.Errorf("%s is too large (%d bytes, limit %d)", path, info.Size(), MaxUploadBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return NewUpload(filepath.Base(path), data)
}

// NewUpload wraps file bytes as an upload. Title and artist are taken from the
// file's tags when they can be read; untagged files are accepted as they are.
func NewUpload(filename string, data []byte) (*models.Upload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !UploadExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	upload := &models.Upload{
		Filename: filepath.Base(filename),
		Data:     data,
	}

	if metadata, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		upload.Title = strings.TrimSpace(metadata.Title())
		upload.Artist = strings.TrimSpace(metadata.Artist())
	}

	return upload, nil
}
