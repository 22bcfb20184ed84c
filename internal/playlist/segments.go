package playlist

import (
	"fmt"
	"strings"
)

// ExtractSegments returns the absolute URL of every media segment in a media playlist,
// in playlist order. The line following each #EXTINF: tag is the segment reference;
// relative references are prefixed with basePath.
func ExtractSegments(content, basePath string) ([]string, error) {
	var urls []string

	lines := splitLines(content)
	for n, line := range lines {
		if !strings.Contains(line, segmentPrefix) {
			continue
		}

		if n+1 >= len(lines) || lines[n+1] == "" {
			return nil, fmt.Errorf("%w: line %d", ErrTruncatedPlaylist, n+1)
		}

		urls = append(urls, Resolve(basePath, lines[n+1]))
	}

	return urls, nil
}
