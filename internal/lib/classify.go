package lib

import (
	"regexp"
	"strings"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

var platformPatterns = []struct {
	re       *regexp.Regexp
	platform models.Platform
}{
	{regexp.MustCompile(`^https?://(www\.)?(youtube\.com|youtu\.be|music\.youtube\.com)`), models.PlatformYouTube},
	{regexp.MustCompile(`^https?://(open\.)?spotify\.com`), models.PlatformSpotify},
	{regexp.MustCompile(`^https?://(www\.|m\.)?soundcloud\.com`), models.PlatformSoundCloud},
}

// Classify decides whether text is a media URL or a search query.
// Rules are tried in order; anything that is not an http(s) URL is a search,
// including empty input.
func Classify(text string) (models.InputMode, models.Platform) {
	trimmed := strings.TrimSpace(text)

	for _, p := range platformPatterns {
		if p.re.MatchString(trimmed) {
			return models.InputModeURL, p.platform
		}
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return models.InputModeURL, models.PlatformUnknown
	}

	return models.InputModeSearch, models.PlatformSearch
}
