package playback

import (
	"strings"

	"netradio/internal/player"
)

// junkMarkers identify ad-server and tracking payloads some stations push
// through the stream title instead of a track name.
var junkMarkers = []string{"tdsdk", "banners", "pname", "pversion", "sbmid"}

// IsJunk reports whether text contains a known tracking marker.
func IsJunk(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range junkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DisplayText picks what to show as now playing: the in-stream title, then
// the stream's own title, then the station name.
func DisplayText(meta player.Metadata, station string) string {
	text := strings.TrimSpace(meta.NowPlaying)
	if text == "" {
		text = strings.TrimSpace(meta.Title)
	}
	if text == "" || IsJunk(text) {
		return station
	}
	return text
}
