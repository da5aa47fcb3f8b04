package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

func TestFormatSet_Lookup(t *testing.T) {
	fs := &models.FormatSet{
		VideoFormats: []models.FormatDescriptor{
			{FormatID: "137", Ext: "mp4"},
			{FormatID: "22", Ext: "mp4", Recommended: true},
		},
		AudioFormats: []models.FormatDescriptor{
			{FormatID: "251", Ext: "webm"},
		},
	}

	assert.Len(t, fs.List(models.MediaKindVideo), 2)
	assert.Len(t, fs.List(models.MediaKindAudio), 1)

	rec, ok := fs.Recommended(models.MediaKindVideo)
	assert.True(t, ok)
	assert.Equal(t, "22", rec.FormatID)

	_, ok = fs.Recommended(models.MediaKindAudio)
	assert.False(t, ok)

	f, ok := fs.Find(models.MediaKindAudio, "251")
	assert.True(t, ok)
	assert.Equal(t, "webm", f.Ext)

	// Ids are scoped to one media kind
	_, ok = fs.Find(models.MediaKindAudio, "22")
	assert.False(t, ok)
}

func TestFormatSet_NilSafe(t *testing.T) {
	var fs *models.FormatSet
	assert.Nil(t, fs.List(models.MediaKindVideo))
	_, ok := fs.Recommended(models.MediaKindVideo)
	assert.False(t, ok)
	_, ok = fs.Find(models.MediaKindVideo, "22")
	assert.False(t, ok)
	fs.Normalize()
}

func TestFormatSet_Normalize(t *testing.T) {
	fs := &models.FormatSet{
		VideoFormats: []models.FormatDescriptor{
			{FormatID: "137", Recommended: true},
			{FormatID: "22", Recommended: true},
		},
		AudioFormats: []models.FormatDescriptor{
			{FormatID: "140"},
			{FormatID: "251", Recommended: true},
		},
	}
	original := fs.VideoFormats

	fs.Normalize()

	assert.True(t, fs.VideoFormats[0].Recommended)
	assert.False(t, fs.VideoFormats[1].Recommended)
	assert.True(t, fs.AudioFormats[1].Recommended)
	assert.Equal(t, models.MediaKindVideo, fs.VideoFormats[0].Kind)
	assert.Equal(t, models.MediaKindAudio, fs.AudioFormats[0].Kind)

	// The input slices are not mutated
	assert.True(t, original[1].Recommended)
}

func TestIsValidMediaKind(t *testing.T) {
	assert.True(t, models.IsValidMediaKind(models.MediaKindVideo))
	assert.True(t, models.IsValidMediaKind(models.MediaKindAudio))
	assert.False(t, models.IsValidMediaKind("subtitle"))
}
