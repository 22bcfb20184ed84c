package playlist

import (
	"net/url"
	"strings"
)

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BasePath returns the playlist URL with its final path segment removed, keeping the
// trailing slash. Query and fragment are dropped.
//
//	BasePath("https://cdn/x/master.m3u8?t=1") == "https://cdn/x/"
func BasePath(playlistURL string) string {
	s := playlistURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	hostStart := 0
	if i := strings.Index(s, "://"); i >= 0 {
		hostStart = i + len("://")
	}

	slash := strings.LastIndex(s, "/")
	if slash < hostStart {
		return s + "/"
	}
	return s[:slash+1]
}

// Resolve turns a playlist reference into an absolute URL. Absolute URLs are returned
// unchanged, host-relative references keep only the scheme and host of basePath, and
// everything else is appended to basePath.
func Resolve(basePath, ref string) string {
	if IsHTTPURL(ref) {
		return ref
	}

	if strings.HasPrefix(ref, "/") {
		if resolved, err := resolveURL(basePath, ref); err == nil {
			return resolved
		}
	}

	return basePath + ref
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(rel).String(), nil
}
