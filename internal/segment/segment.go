// Package segment defines data structures for HLS media segments.
package segment

// Segment represents a single HLS media segment scheduled for download.
type Segment struct {
	// URL is the absolute segment URL
	URL string

	// Sequence is the position in the source playlist, starting at 0
	Sequence int
}

// FromURLs wraps an ordered URL list, assigning sequence numbers in list order.
func FromURLs(urls []string) []Segment {
	segments := make([]Segment, len(urls))
	for i, u := range urls {
		segments[i] = Segment{URL: u, Sequence: i}
	}
	return segments
}
