package playlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
)

const targetDurationPrefix = "#EXT-X-TARGETDURATION:"

// Summary is descriptive playlist metadata. It is used for logging and warnings only;
// segment and variant extraction never depend on it.
type Summary struct {
	Kind Kind

	// Variants is the number of variant streams (master playlists only)
	Variants int

	// Segments is the number of segments the decoder saw (media playlists only)
	Segments int

	// TargetDuration is the declared #EXT-X-TARGETDURATION value in seconds, 0 when absent
	TargetDuration float64

	// LongestSegment is the longest #EXTINF duration in seconds
	LongestSegment float64

	// TotalDuration is the sum of all segment durations in seconds
	TotalDuration float64

	// Encrypted is set when any segment is covered by an EXT-X-KEY other than NONE
	Encrypted bool

	// Closed is set for VOD playlists ending with #EXT-X-ENDLIST
	Closed bool
}

// Probe decodes the playlist with a full HLS decoder and summarizes it.
func Probe(content string) (*Summary, error) {
	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(content), false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}

	switch listType {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected playlist type")
		}
		return &Summary{Kind: Master, Variants: len(master.Variants)}, nil

	case m3u8.MEDIA:
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected playlist type")
		}
		s := summarizeMedia(media)
		s.TargetDuration = declaredTargetDuration(content)
		return s, nil
	}

	return nil, fmt.Errorf("unexpected playlist type")
}

func summarizeMedia(media *m3u8.MediaPlaylist) *Summary {
	s := &Summary{
		Kind:      Media,
		Closed:    media.Closed,
		Encrypted: isEncrypted(media.Key),
	}

	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		s.Segments++
		s.TotalDuration += seg.Duration
		if seg.Duration > s.LongestSegment {
			s.LongestSegment = seg.Duration
		}
		if isEncrypted(seg.Key) {
			s.Encrypted = true
		}
	}

	return s
}

// declaredTargetDuration reads the tag text. The decoder raises its own value to
// the longest segment, which hides playlists that violate their target duration.
func declaredTargetDuration(content string) float64 {
	for _, line := range splitLines(content) {
		raw, ok := strings.CutPrefix(strings.TrimSpace(line), targetDurationPrefix)
		if !ok {
			continue
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0
		}
		return d
	}
	return 0
}

func isEncrypted(key *m3u8.Key) bool {
	return key != nil && key.Method != "" && key.Method != "NONE"
}
