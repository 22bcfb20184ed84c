package playlist

import "errors"

// Parse errors returned by the playlist functions. All of them are terminal for a download.
var (
	// ErrNotAPlaylist is returned when content does not start with the #EXTM3U header.
	ErrNotAPlaylist = errors.New("content does not have m3u header")

	// ErrUnknownPlaylistType is returned when content has the #EXTM3U header but
	// neither stream nor segment tags.
	ErrUnknownPlaylistType = errors.New("playlist has neither stream info nor segment tags")

	// ErrInvalidPlaylistType is returned when variant extraction finds no stream info lines.
	ErrInvalidPlaylistType = errors.New("stream type was detected incorrectly")

	// ErrInvalidPlaylistStructure is returned when a stream info attribute lacks '='.
	ErrInvalidPlaylistStructure = errors.New("stream info structure is not correct")

	// ErrVariantNotFound is returned when a variant's line or its URL line cannot be located.
	ErrVariantNotFound = errors.New("variant not found in playlist")

	// ErrTruncatedPlaylist is returned when a segment tag is not followed by a URI line.
	ErrTruncatedPlaylist = errors.New("segment tag without uri")
)
