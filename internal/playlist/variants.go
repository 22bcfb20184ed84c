package playlist

import (
	"fmt"
	"strings"

	"github.com/agleyzer/qpdown/internal/variant"
)

// ExtractVariants parses every #EXT-X-STREAM-INF line of a master playlist.
// Variants are returned in the order they appear in content.
func ExtractVariants(content string) ([]variant.Variant, error) {
	var variants []variant.Variant

	for lineNo, line := range splitLines(content) {
		if !strings.Contains(line, StreamInfTag) {
			continue
		}

		attrs, err := parseAttributes(strings.ReplaceAll(line, streamPrefix, ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}

		variants = append(variants, variant.Variant{
			Attributes: attrs,
			Line:       line,
		})
	}

	if len(variants) == 0 {
		return nil, ErrInvalidPlaylistType
	}

	return variants, nil
}

// parseAttributes splits a comma separated key=value list. Commas inside
// double-quoted values (CODECS="avc1.4d401f,mp4a.40.2") do not end a token.
func parseAttributes(list string) ([]variant.Attribute, error) {
	var attrs []variant.Attribute

	for _, token := range splitOutsideQuotes(list) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q has no value", ErrInvalidPlaylistStructure, token)
		}
		attrs = append(attrs, variant.Attribute{Key: key, Value: value})
	}

	return attrs, nil
}

func splitOutsideQuotes(s string) []string {
	var (
		tokens []string
		quoted bool
		start  int
	)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				tokens = append(tokens, s[start:i])
				start = i + 1
			}
		}
	}

	return append(tokens, s[start:])
}

// ResolveVariantURL returns the URI line that follows the variant's stream info line.
// The line is located by searching for the variant's canonical attribute string;
// the first matching line wins. The URI is returned exactly as written, which may be
// relative to the master playlist.
func ResolveVariantURL(content string, v variant.Variant) (string, error) {
	built := v.String()
	if built == "" {
		return "", fmt.Errorf("%w: variant has no attributes", ErrVariantNotFound)
	}

	lines := splitLines(content)
	for i, line := range lines {
		if !strings.Contains(line, built) {
			continue
		}

		if i+1 >= len(lines) || lines[i+1] == "" {
			return "", fmt.Errorf("%w: no uri after %q", ErrVariantNotFound, built)
		}
		return lines[i+1], nil
	}

	return "", fmt.Errorf("%w: %q", ErrVariantNotFound, built)
}
