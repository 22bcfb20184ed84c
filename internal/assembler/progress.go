package assembler

// Progress receives download progress. Calls are made from one goroutine at a time.
type Progress interface {
	// Start is called once with the number of segments to download.
	Start(total int)
	// Segment is called after a segment has been appended to the output.
	Segment(sequence, bytes int)
	// Finish is called when segment downloading ends, successfully or not.
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)        {}
func (nopProgress) Segment(int, int) {}
func (nopProgress) Finish()          {}

// Stats is a snapshot of a run.
type Stats struct {
	Stage        Stage
	Kind         string
	Variant      string
	PlaylistURL  string
	Segments     int
	Completed    int
	Bytes        int64
	Intermediate string
	Output       string
	Err          string
}

// Map returns the snapshot in the form served by the status endpoint.
func (s Stats) Map() map[string]interface{} {
	m := map[string]interface{}{
		"stage":              s.Stage.String(),
		"playlist_type":      s.Kind,
		"playlist_url":       s.PlaylistURL,
		"total_segments":     s.Segments,
		"completed_segments": s.Completed,
		"bytes":              s.Bytes,
		"intermediate":       s.Intermediate,
		"output":             s.Output,
	}
	if s.Variant != "" {
		m["variant"] = s.Variant
	}
	if s.Err != "" {
		m["error"] = s.Err
	}
	return m
}
