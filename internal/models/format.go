package models

// MediaKind selects between the video and audio halves of a format catalog
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// BestFormatID is the sentinel format id meaning "let the backend choose"
const BestFormatID = "best"

// IsValidMediaKind checks if the media kind is recognized
func IsValidMediaKind(k MediaKind) bool {
	return k == MediaKindVideo || k == MediaKindAudio
}

// FormatDescriptor is one downloadable encoding of a source
type FormatDescriptor struct {
	FormatID     string    `json:"format_id"`
	Ext          string    `json:"ext"`
	Kind         MediaKind `json:"type"`
	Resolution   string    `json:"resolution,omitempty"`
	FPS          *float64  `json:"fps,omitempty"`
	VideoCodec   string    `json:"vcodec,omitempty"`
	AudioCodec   string    `json:"acodec,omitempty"`
	AudioBitrate *float64  `json:"abr,omitempty"`
	SampleRate   *int      `json:"asr,omitempty"`
	TotalBitrate *float64  `json:"tbr,omitempty"`
	FileSize     *int64    `json:"filesize,omitempty"`
	Note         string    `json:"format_note,omitempty"`
	HasAudio     *bool     `json:"has_audio,omitempty"`
	Recommended  bool      `json:"is_best,omitempty"`
	Quality      *float64  `json:"quality,omitempty"`
}

// SourceMetadata describes the media behind a URL
type SourceMetadata struct {
	Title       string   `json:"title"`
	Duration    *float64 `json:"duration,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Channel     string   `json:"channel,omitempty"`
	UploadDate  string   `json:"upload_date,omitempty"`
	Description string   `json:"description,omitempty"`
	ViewCount   *int64   `json:"view_count,omitempty"`
	LikeCount   *int64   `json:"like_count,omitempty"`
}

// FormatSet is the response of GET /api/download/formats
type FormatSet struct {
	Platform     Platform           `json:"platform,omitempty"`
	Metadata     SourceMetadata     `json:"metadata"`
	VideoFormats []FormatDescriptor `json:"video_formats"`
	AudioFormats []FormatDescriptor `json:"audio_formats"`
}

// List returns the descriptors of one media kind
func (fs *FormatSet) List(kind MediaKind) []FormatDescriptor {
	if fs == nil {
		return nil
	}
	if kind == MediaKindAudio {
		return fs.AudioFormats
	}
	return fs.VideoFormats
}

// Recommended returns the descriptor flagged as the default for a media kind
func (fs *FormatSet) Recommended(kind MediaKind) (FormatDescriptor, bool) {
	for _, f := range fs.List(kind) {
		if f.Recommended {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// Find looks up a descriptor by id within one media kind
func (fs *FormatSet) Find(kind MediaKind, formatID string) (FormatDescriptor, bool) {
	for _, f := range fs.List(kind) {
		if f.FormatID == formatID {
			return f, true
		}
	}
	return FormatDescriptor{}, false
}

// Normalize enforces at most one recommended descriptor per media kind.
// The first flagged entry wins; later flags are cleared.
func (fs *FormatSet) Normalize() {
	if fs == nil {
		return
	}
	fs.VideoFormats = normalizeKind(fs.VideoFormats, MediaKindVideo)
	fs.AudioFormats = normalizeKind(fs.AudioFormats, MediaKindAudio)
}

func normalizeKind(formats []FormatDescriptor, kind MediaKind) []FormatDescriptor {
	seen := false
	out := make([]FormatDescriptor, len(formats))
	for i, f := range formats {
		if f.Kind == "" {
			f.Kind = kind
		}
		if f.Recommended {
			if seen {
				f.Recommended = false
			}
			seen = true
		}
		out[i] = f
	}
	return out
}
