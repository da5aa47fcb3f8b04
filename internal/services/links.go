package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// LinkBuilder turns artifact references into backend download URLs
type LinkBuilder struct {
	baseURL string
}

// NewLinkBuilder creates a link builder for a backend root
func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the download URL of an artifact
func (b *LinkBuilder) URL(ref models.ArtifactRef) string {
	id := url.PathEscape(ref.JobID)

	switch ref.Kind {
	case models.PipelineStems:
		u := fmt.Sprintf("%s/api/stems/download/%s", b.baseURL, id)
		if !ref.Archive && ref.SubName != "" {
			u += "?stem=" + url.QueryEscape(ref.SubName)
		}
		return u
	case models.PipelineKaraoke:
		u := fmt.Sprintf("%s/api/karaoke/download/%s", b.baseURL, id)
		if ref.SubName != "" {
			u += "?track=" + url.QueryEscape(ref.SubName)
		}
		return u
	default:
		return fmt.Sprintf("%s/api/download/file/%s", b.baseURL, id)
	}
}

// URLs resolves a list of artifacts, keeping their order
func (b *LinkBuilder) URLs(refs []models.ArtifactRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = b.URL(ref)
	}
	return out
}
