package lib_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/models"
)

func upload() *models.Upload {
	return &models.Upload{Filename: "song.mp3", Data: []byte{0x49, 0x44, 0x33}}
}

func TestValidateRequest_Valid(t *testing.T) {
	tests := []struct {
		name string
		req  models.JobRequest
	}{
		{"download best video", models.JobRequest{
			Kind: models.PipelineDownload, URL: "https://youtu.be/abc",
			FormatID: models.BestFormatID, MediaKind: models.MediaKindVideo,
		}},
		{"download audio format", models.JobRequest{
			Kind: models.PipelineDownload, URL: "https://youtu.be/abc",
			FormatID: "140", MediaKind: models.MediaKindAudio,
		}},
		{"stems from url", models.JobRequest{
			Kind: models.PipelineStems, URL: "https://soundcloud.com/a/b",
			OutputFormat: models.OutputFormatWAV, Stems: []string{"vocals", "drums"},
		}},
		{"stems from upload", models.JobRequest{
			Kind: models.PipelineStems, Upload: upload(), OutputFormat: models.OutputFormatMP3,
		}},
		{"karaoke from upload", models.JobRequest{
			Kind: models.PipelineKaraoke, Upload: upload(), OutputFormat: models.OutputFormatMP3,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, lib.ValidateRequest(tt.req))
		})
	}
}

func TestValidateRequest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		req     models.JobRequest
		message string
	}{
		{"missing kind", models.JobRequest{URL: "https://youtu.be/abc"}, "kind is required"},
		{"unknown kind", models.JobRequest{Kind: "remix", URL: "https://youtu.be/abc"}, "kind must be one of"},
		{"malformed url", models.JobRequest{
			Kind: models.PipelineStems, URL: "not a url", OutputFormat: "mp3",
		}, "not a valid URL"},
		{"download without url", models.JobRequest{
			Kind: models.PipelineDownload, FormatID: "best", MediaKind: models.MediaKindVideo,
		}, "download needs a URL"},
		{"download with upload", models.JobRequest{
			Kind: models.PipelineDownload, URL: "https://youtu.be/abc", Upload: upload(),
			FormatID: "best", MediaKind: models.MediaKindVideo,
		}, "does not accept uploaded files"},
		{"download without format", models.JobRequest{
			Kind: models.PipelineDownload, URL: "https://youtu.be/abc", MediaKind: models.MediaKindVideo,
		}, "no format selected"},
		{"download without kind", models.JobRequest{
			Kind: models.PipelineDownload, URL: "https://youtu.be/abc", FormatID: "best",
		}, "unknown output kind"},
		{"stems with both sources", models.JobRequest{
			Kind: models.PipelineStems, URL: "https://youtu.be/abc", Upload: upload(), OutputFormat: "mp3",
		}, "exactly one"},
		{"stems without source", models.JobRequest{
			Kind: models.PipelineStems, OutputFormat: "mp3",
		}, "exactly one"},
		{"bad output format", models.JobRequest{
			Kind: models.PipelineKaraoke, URL: "https://youtu.be/abc", OutputFormat: "flac",
		}, "outputformat must be one of"},
		{"unknown stem", models.JobRequest{
			Kind: models.PipelineStems, URL: "https://youtu.be/abc", OutputFormat: "mp3", Stems: []string{"piano"},
		}, "stems[0] must be one of"},
		{"karaoke with stems", models.JobRequest{
			Kind: models.PipelineKaraoke, URL: "https://youtu.be/abc", OutputFormat: "mp3", Stems: []string{"vocals"},
		}, "karaoke does not take a stem selection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lib.ValidateRequest(tt.req)
			require.Error(t, err)

			var appErr *lib.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, lib.CategoryValidation, appErr.Category)
			assert.Contains(t, appErr.Message, tt.message)
		})
	}
}
