// Package hlstest builds HLS playlists and serves them, together with segment
// payloads, from a local HTTP origin for tests.
package hlstest

import (
	"fmt"
	"strings"
)

// MediaSegment is one entry of a generated media playlist.
type MediaSegment struct {
	URI      string
	Duration float64
}

// StreamInf is one variant entry of a generated master playlist.
type StreamInf struct {
	Bandwidth  int
	Resolution string
	Codecs     string
	URI        string
}

// Segments returns count segments named <prefix>000.ts, <prefix>001.ts, ...
func Segments(prefix string, count int, duration float64) []MediaSegment {
	segments := make([]MediaSegment, count)
	for i := range segments {
		segments[i] = MediaSegment{
			URI:      fmt.Sprintf("%s%03d.ts", prefix, i),
			Duration: duration,
		}
	}
	return segments
}

// Media creates a VOD media playlist.
func Media(segments []MediaSegment) string {
	targetDuration := 0
	for _, seg := range segments {
		if d := int(seg.Duration + 0.999); d > targetDuration {
			targetDuration = d
		}
	}

	var b strings.Builder

	// HLS playlist header
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	b.WriteString(fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", targetDuration))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")

	for _, seg := range segments {
		b.WriteString(fmt.Sprintf("#EXTINF:%.3f,\n", seg.Duration))
		b.WriteString(seg.URI)
		b.WriteString("\n")
	}

	b.WriteString("#EXT-X-ENDLIST\n")

	return b.String()
}

// Master creates a master playlist with one #EXT-X-STREAM-INF entry per variant.
func Master(variants []StreamInf) string {
	var b strings.Builder

	// HLS master playlist header
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")

	for _, v := range variants {
		// Build #EXT-X-STREAM-INF attributes
		b.WriteString("#EXT-X-STREAM-INF:")
		b.WriteString(fmt.Sprintf("BANDWIDTH=%d", v.Bandwidth))

		if v.Resolution != "" {
			b.WriteString(fmt.Sprintf(",RESOLUTION=%s", v.Resolution))
		}

		if v.Codecs != "" {
			b.WriteString(fmt.Sprintf(",CODECS=\"%s\"", v.Codecs))
		}

		b.WriteString("\n")
		b.WriteString(v.URI)
		b.WriteString("\n")
	}

	return b.String()
}

// Payload returns deterministic bytes standing in for the named segment.
// Every payload starts with the MPEG-TS sync byte.
func Payload(name string, size int) []byte {
	if size < 1 {
		size = 1
	}
	if name == "" {
		name = "segment"
	}

	data := make([]byte, size)
	data[0] = 0x47
	for i := 1; i < size; i++ {
		data[i] = name[i%len(name)] ^ byte(i)
	}
	return data
}
