package models

import (
	"sort"
	"strings"
)

// Output containers accepted by the stems and karaoke pipelines
const (
	OutputFormatMP3 = "mp3"
	OutputFormatWAV = "wav"
)

// Stem names produced by the separation model
const (
	StemVocals = "vocals"
	StemDrums  = "drums"
	StemBass   = "bass"
	StemOther  = "other"
)

// AllStems lists the stems in canonical order
var AllStems = []string{StemVocals, StemDrums, StemBass, StemOther}

// StemsAll is the wire value requesting every stem
const StemsAll = "all"

// Karaoke track labels
const (
	TrackInstrumental = "instrumental"
	TrackVocals       = "vocals"
)

// JobRequest is the immutable payload built once when the user submits
type JobRequest struct {
	Kind         PipelineKind `json:"kind" validate:"required,oneof=download stems karaoke"`
	URL          string       `json:"url,omitempty" validate:"omitempty,url"`
	Upload       *Upload      `json:"upload,omitempty"`
	FormatID     string       `json:"format_id,omitempty"`
	MediaKind    MediaKind    `json:"type,omitempty" validate:"omitempty,oneof=video audio"`
	OutputFormat string       `json:"output_format,omitempty" validate:"omitempty,oneof=mp3 wav"`
	Stems        []string     `json:"stems,omitempty" validate:"omitempty,dive,oneof=vocals drums bass other"`
}

// HasURL reports whether the request points at a remote source
func (r JobRequest) HasURL() bool {
	return strings.TrimSpace(r.URL) != ""
}

// HasUpload reports whether the request carries file bytes
func (r JobRequest) HasUpload() bool {
	return r.Upload != nil && len(r.Upload.Data) > 0
}

// StemsField returns the wire value of the stem selection
// An empty selection or one naming every stem is sent as "all"
func (r JobRequest) StemsField() string {
	if len(r.Stems) == 0 {
		return StemsAll
	}
	selected := NormalizeStems(r.Stems)
	if len(selected) == len(AllStems) {
		return StemsAll
	}
	return strings.Join(selected, ",")
}

// IsValidStem checks if a stem name is recognized
func IsValidStem(name string) bool {
	for _, s := range AllStems {
		if s == name {
			return true
		}
	}
	return false
}

// NormalizeStems lowercases, de-duplicates and orders a stem selection canonically
// Unknown names are kept (after the known ones, sorted) so validation can report them
func NormalizeStems(stems []string) []string {
	seen := make(map[string]bool, len(stems))
	var known, unknown []string
	for _, s := range stems {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		if !IsValidStem(s) {
			unknown = append(unknown, s)
		}
	}
	for _, s := range AllStems {
		if seen[s] {
			known = append(known, s)
		}
	}
	sort.Strings(unknown)
	return append(known, unknown...)
}
