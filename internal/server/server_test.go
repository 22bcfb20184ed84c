package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

type fakeStats struct {
	mu    sync.Mutex
	stats map[string]interface{}
}

func (f *fakeStats) GetStats() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]interface{}, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out
}

func (f *fakeStats) set(key string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[key] = value
}

func createTestStats() *fakeStats {
	return &fakeStats{stats: map[string]interface{}{
		"stage":              "fetch-segments",
		"playlist_type":      "media",
		"total_segments":     25,
		"completed_segments": 3,
		"bytes":              564,
	}}
}

func createTestLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

func TestNew(t *testing.T) {
	stats := createTestStats()
	srv := New(stats, 8080, createTestLogger())

	if srv.stats != stats {
		t.Error("Stats provider not set correctly")
	}
	if srv.port != 8080 {
		t.Error("Port not set correctly")
	}
	if srv.Addr() != nil {
		t.Error("Addr should be nil before Start")
	}
}

func TestHandleHealth(t *testing.T) {
	srv := New(createTestStats(), 8080, createTestLogger())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	srv.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	// Check content type
	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
	}

	// Parse JSON response
	var health map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	if health["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", health["status"])
	}

	stats, ok := health["stats"].(map[string]interface{})
	if !ok {
		t.Fatal("Stats is not a map")
	}

	expectedFields := []string{"stage", "playlist_type", "total_segments", "completed_segments", "bytes"}
	for _, field := range expectedFields {
		if _, ok := stats[field]; !ok {
			t.Errorf("Stats missing field '%s'", field)
		}
	}
}

func TestHandleHealth_ReflectsProgress(t *testing.T) {
	stats := createTestStats()
	srv := New(stats, 8080, createTestLogger())

	stats.set("completed_segments", 7)

	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest("GET", "/health", nil))

	var health map[string]interface{}
	json.NewDecoder(w.Body).Decode(&health)

	completed := health["stats"].(map[string]interface{})["completed_segments"].(float64)
	if completed != 7 {
		t.Errorf("Expected completed_segments 7, got %v", completed)
	}
}

func TestHandleHealth_FailedRun(t *testing.T) {
	stats := createTestStats()
	stats.set("stage", "error")
	stats.set("error", "fetch-segments: network error")
	srv := New(stats, 8080, createTestLogger())

	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest("GET", "/health", nil))

	var health map[string]interface{}
	json.NewDecoder(w.Body).Decode(&health)

	if health["status"] != "error" {
		t.Errorf("Expected status 'error', got '%v'", health["status"])
	}
}

func TestHandleStats(t *testing.T) {
	srv := New(createTestStats(), 8080, createTestLogger())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}
	if stats["stage"] != "fetch-segments" {
		t.Errorf("Expected stage 'fetch-segments', got '%v'", stats["stage"])
	}
}

func TestHandler_UnknownPath(t *testing.T) {
	srv := New(createTestStats(), 8080, createTestLogger())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/playlist.m3u8", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	srv := New(createTestStats(), 8080, createTestLogger())

	// Create a test handler
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test"))
	})

	wrapped := srv.loggingMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	// Check that handler was called
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "test" {
		t.Errorf("Expected body 'test', got '%s'", w.Body.String())
	}
}

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	wrapped := &responseWriter{
		ResponseWriter: httptest.NewRecorder(),
		statusCode:     http.StatusOK,
	}

	wrapped.WriteHeader(http.StatusNotFound)

	if wrapped.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", wrapped.statusCode)
	}
}

func TestServer_Integration(t *testing.T) {
	srv := New(createTestStats(), 0, createTestLogger()) // Use port 0 for automatic port assignment

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	// Wait for the listener
	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Addr() == nil {
		t.Fatal("Server did not bind a port")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", srv.Addr()))
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	// Server should be running, cancel context to stop it
	cancel()

	// Wait for server to stop
	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			t.Errorf("Expected nil or ErrServerClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Server did not stop within timeout")
	}
}

func TestServer_PortInUse(t *testing.T) {
	first := New(createTestStats(), 0, createTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go first.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for first.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if first.Addr() == nil {
		t.Fatal("Server did not bind a port")
	}

	port := first.Addr().(*net.TCPAddr).Port
	second := New(createTestStats(), port, createTestLogger())
	if err := second.Start(context.Background()); err == nil {
		t.Error("Expected error when port is already in use")
	}
}

func TestHandleHealth_ConcurrentRequests(t *testing.T) {
	stats := createTestStats()
	srv := New(stats, 8080, createTestLogger())

	done := make(chan bool)

	// Make concurrent health check requests
	for i := 0; i < 10; i++ {
		i := i
		go func() {
			stats.set("completed_segments", i)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()

			srv.handleHealth(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}

			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}
}
