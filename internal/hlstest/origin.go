package hlstest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Origin is an HTTP server serving in-memory playlists and segments.
type Origin struct {
	server *httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	delays   map[string]time.Duration
	hits     map[string]int
	headers  map[string]http.Header
}

// NewOrigin starts an origin that is closed when the test finishes.
func NewOrigin(t testing.TB) *Origin {
	t.Helper()

	o := &Origin{
		files:    make(map[string][]byte),
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		hits:     make(map[string]int),
		headers:  make(map[string]http.Header),
	}
	o.server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.server.Close)

	return o
}

// URL returns the absolute URL of path, which must start with "/".
func (o *Origin) URL(path string) string {
	return o.server.URL + path
}

// Handle serves body at path.
func (o *Origin) Handle(path string, body []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path] = body
}

// HandleString serves a playlist at path.
func (o *Origin) HandleString(path, body string) {
	o.Handle(path, []byte(body))
}

// Fail makes path answer with status.
func (o *Origin) Fail(path string, status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[path] = status
}

// Delay holds responses for path for d.
func (o *Origin) Delay(path string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delays[path] = d
}

// Hits returns how many requests path received.
func (o *Origin) Hits(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

// Header returns the request headers of the last request for path.
func (o *Origin) Header(path string) http.Header {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.headers[path]
}

func (o *Origin) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	o.hits[r.URL.Path]++
	o.headers[r.URL.Path] = r.Header.Clone()
	body, ok := o.files[r.URL.Path]
	status := o.failures[r.URL.Path]
	delay := o.delays[r.URL.Path]
	o.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
