// Package playlist classifies HLS playlists and extracts variants and segments from them.
//
// Parsing is intentionally shallow: tags are matched by substring containment of
// the marker tokens, not by a full grammar.
package playlist

import (
	"fmt"
	"strings"
)

// HLS tag markers matched in playlist text.
const (
	HeaderTag     = "#EXTM3U"
	StreamInfTag  = "#EXT-X-STREAM-INF"
	SegmentTag    = "#EXTINF"
	segmentPrefix = "#EXTINF:"
	streamPrefix  = "#EXT-X-STREAM-INF:"
)

// Kind is the type of an HLS playlist.
type Kind int

const (
	// Unknown is never returned together with a nil error.
	Unknown Kind = iota
	// Master lists variant streams.
	Master
	// Media lists media segments.
	Media
)

func (k Kind) String() string {
	switch k {
	case Master:
		return "master"
	case Media:
		return "media"
	default:
		return "unknown"
	}
}

// Classify inspects playlist text and reports whether it is a master or a media playlist.
func Classify(content string) (Kind, error) {
	if !strings.HasPrefix(content, HeaderTag) {
		return Unknown, ErrNotAPlaylist
	}

	lines := splitLines(content)
	if containsLine(lines, StreamInfTag) {
		return Master, nil
	}
	if containsLine(lines, SegmentTag) {
		return Media, nil
	}

	return Unknown, fmt.Errorf("%w (%d lines)", ErrUnknownPlaylistType, len(lines))
}

func containsLine(lines []string, marker string) bool {
	for _, line := range lines {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// splitLines splits text on line boundaries. A trailing line break does not produce
// an extra empty line, and CRLF endings are accepted.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
