package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ytdlstem/ytdlstem/internal/models"
	"github.com/ytdlstem/ytdlstem/internal/services"
)

func TestLinkBuilder_URL(t *testing.T) {
	b := services.NewLinkBuilder("http://backend:8000/")

	tests := []struct {
		name string
		ref  models.ArtifactRef
		want string
	}{
		{
			name: "download file",
			ref:  models.ArtifactRef{JobID: "d1", Kind: models.PipelineDownload, Filename: "abc.mp4"},
			want: "http://backend:8000/api/download/file/d1",
		},
		{
			name: "single stem",
			ref:  models.ArtifactRef{JobID: "s1", Kind: models.PipelineStems, SubName: "vocals"},
			want: "http://backend:8000/api/stems/download/s1?stem=vocals",
		},
		{
			name: "stems archive",
			ref:  models.ArtifactRef{JobID: "s1", Kind: models.PipelineStems, Label: "all", Archive: true},
			want: "http://backend:8000/api/stems/download/s1",
		},
		{
			name: "karaoke track",
			ref:  models.ArtifactRef{JobID: "k1", Kind: models.PipelineKaraoke, SubName: "instrumental"},
			want: "http://backend:8000/api/karaoke/download/k1?track=instrumental",
		},
		{
			name: "escaped job id",
			ref:  models.ArtifactRef{JobID: "a/b c", Kind: models.PipelineDownload},
			want: "http://backend:8000/api/download/file/a%2Fb%20c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.URL(tt.ref))
		})
	}
}

func TestLinkBuilder_URLsKeepsOrder(t *testing.T) {
	b := services.NewLinkBuilder("http://x")
	refs := []models.ArtifactRef{
		{JobID: "s1", Kind: models.PipelineStems, SubName: "drums"},
		{JobID: "s1", Kind: models.PipelineStems, Archive: true},
	}

	assert.Equal(t, []string{
		"http://x/api/stems/download/s1?stem=drums",
		"http://x/api/stems/download/s1",
	}, b.URLs(refs))
}
