package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_PutAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := NewLocalSink(dir)
	ctx := context.Background()

	exists, err := sink.Exists(ctx, "abc.mp4")
	require.NoError(t, err)
	assert.False(t, exists)

	location, err := sink.Put(ctx, "abc.mp4", strings.NewReader("video bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.mp4"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))

	exists, err = sink.Exists(ctx, "abc.mp4")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalSink_PutStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	sink := NewLocalSink(dir)

	location, err := sink.Put(context.Background(), "../escape.mp3", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.mp3"), location)
}

func TestLocalSink_CancelledContextLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewLocalSink(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sink.Put(ctx, "vocals.wav", strings.NewReader("data"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
