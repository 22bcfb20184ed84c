// Package variant defines data structures for HLS variant streams in master playlists.
package variant

import (
	"strconv"
	"strings"
)

// Attribute is a single key=value pair from an #EXT-X-STREAM-INF line.
type Attribute struct {
	Key   string
	Value string
}

// Variant represents a single variant stream in an HLS master playlist.
// Each variant typically represents a different quality level (bitrate/resolution).
type Variant struct {
	// Attributes holds the stream attributes in the order they were declared.
	Attributes []Attribute

	// Line is the exact #EXT-X-STREAM-INF line the variant was parsed from
	Line string
}

// Get returns the value of the named attribute and whether it was present.
func (v Variant) Get(key string) (string, bool) {
	for _, a := range v.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Resolution returns the RESOLUTION attribute (e.g., "1920x1080"), or an empty string.
func (v Variant) Resolution() string {
	res, _ := v.Get("RESOLUTION")
	return res
}

// Bandwidth returns the BANDWIDTH attribute in bits per second, or 0 if absent or malformed.
func (v Variant) Bandwidth() int {
	raw, ok := v.Get("BANDWIDTH")
	if !ok {
		return 0
	}
	bw, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return bw
}

// String returns the canonical comma-joined key=value form in declaration order.
// This is the text used to locate the variant's line inside the master playlist.
func (v Variant) String() string {
	parts := make([]string, len(v.Attributes))
	for i, a := range v.Attributes {
		parts[i] = a.Key + "=" + a.Value
	}
	return strings.Join(parts, ",")
}

// Label returns a short human readable description used when listing variants.
func (v Variant) Label() string {
	if res := v.Resolution(); res != "" {
		return res
	}
	if bw, ok := v.Get("BANDWIDTH"); ok {
		return bw + " bps"
	}
	return v.String()
}
