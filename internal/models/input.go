package models

// InputMode describes how the text a user typed (or the file they attached) should be interpreted
type InputMode string

const (
	InputModeURL    InputMode = "url"    // Pasted media URL, goes straight to the format catalog
	InputModeSearch InputMode = "search" // Free text, goes through debounced search
	InputModeUpload InputMode = "upload" // Local file attached instead of text
)

// Platform is an advisory tag shown next to the input; it never affects submission
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformSpotify    Platform = "spotify"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformUnknown    Platform = "unknown"
	PlatformSearch     Platform = "search"
)

// IsValidInputMode checks if the input mode is recognized
func IsValidInputMode(m InputMode) bool {
	return m == InputModeURL || m == InputModeSearch || m == InputModeUpload
}

// SearchResult is one hit returned by the backend search endpoint
type SearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Duration  *float64 `json:"duration,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	ViewCount *int64   `json:"view_count,omitempty"`
}

// SearchResponse is the envelope of GET /api/download/search
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Upload is a local file attached as the job source (stems and karaoke only)
type Upload struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
	Title    string `json:"title,omitempty"`  // From audio tags when readable
	Artist   string `json:"artist,omitempty"` // From audio tags when readable
}

// Info returns the displayable part of the upload, without the file bytes
func (u Upload) Info() UploadInfo {
	return UploadInfo{
		Filename: u.Filename,
		Size:     int64(len(u.Data)),
		Title:    u.Title,
		Artist:   u.Artist,
	}
}

// UploadInfo describes an attached file in state snapshots
type UploadInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
}
