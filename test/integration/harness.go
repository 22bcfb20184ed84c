// Package integration provides integration testing utilities for qpdown.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/agleyzer/qpdown/internal/hlstest"
)

// TestHarness manages the test environment for integration tests.
type TestHarness struct {
	t          *testing.T
	httpServer *http.Server
	httpPort   int
	originDir  string
	workDir    string
	ffmpeg     string
	statusPort int

	qpdownCmd *exec.Cmd
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	done      chan error
	cancel    context.CancelFunc
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	workDir := t.TempDir()

	return &TestHarness{
		t:          t,
		httpPort:   findAvailablePort(t),
		statusPort: findAvailablePort(t),
		originDir:  t.TempDir(),
		workDir:    workDir,
		ffmpeg:     hlstest.WriteFakeFFmpeg(t, workDir),
	}
}

// StartHTTPServer starts an HTTP server serving the origin directory.
// A non-zero slow delays every .ts response.
func (h *TestHarness) StartHTTPServer(slow time.Duration) {
	h.t.Helper()

	// Create file server
	mux := http.NewServeMux()
	fileServer := http.FileServer(http.Dir(h.originDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow > 0 && filepath.Ext(r.URL.Path) == ".ts" {
			time.Sleep(slow)
		}
		fileServer.ServeHTTP(w, r)
	}))

	h.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", h.httpPort),
		Handler: mux,
	}

	// Start server in goroutine
	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.t.Logf("HTTP server error: %v", err)
		}
	}()

	// Wait for server to be ready
	h.waitForServer(h.OriginURL("/"), 5*time.Second)
	h.t.Logf("HTTP server started on port %d", h.httpPort)
}

// OriginURL returns the URL of path on the origin server.
func (h *TestHarness) OriginURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", h.httpPort, path)
}

// AddFile writes a file into the origin directory.
func (h *TestHarness) AddFile(name string, content []byte) {
	h.t.Helper()

	path := filepath.Join(h.originDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.t.Fatalf("failed to create origin directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
}

// AddMedia writes a media playlist dir/index.m3u8 with count segments and returns
// the expected concatenation of the segment files.
func (h *TestHarness) AddMedia(dir string, count int) []byte {
	h.t.Helper()

	segments := hlstest.Segments("segment", count, 2)
	h.AddFile(dir+"/index.m3u8", []byte(hlstest.Media(segments)))

	var want bytes.Buffer
	for _, seg := range segments {
		payload := hlstest.Payload(dir+"/"+seg.URI, 188*7)
		h.AddFile(dir+"/"+seg.URI, payload)
		want.Write(payload)
	}
	return want.Bytes()
}

// OutputPath returns a path for output files inside the work directory.
func (h *TestHarness) OutputPath(name string) string {
	return filepath.Join(h.workDir, name)
}

// StartQPDown starts the qpdown binary with the given arguments, the fake ffmpeg and
// the status server enabled.
func (h *TestHarness) StartQPDown(stdin string, args ...string) {
	h.t.Helper()

	binaryPath := h.findQPDownBinary()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	args = append(args,
		"--ffmpeg", h.ffmpeg,
		"--status-port", fmt.Sprintf("%d", h.statusPort),
		"--no-progress",
	)
	h.qpdownCmd = exec.CommandContext(ctx, binaryPath, args...)
	h.qpdownCmd.Stdin = bytes.NewBufferString(stdin)
	h.qpdownCmd.Stdout = &h.stdout
	h.qpdownCmd.Stderr = &h.stderr
	h.qpdownCmd.Env = append(os.Environ(), hlstest.FakeFFmpegAccelsEnv+"=cuda")

	if err := h.qpdownCmd.Start(); err != nil {
		h.t.Fatalf("failed to start qpdown: %v", err)
	}

	h.done = make(chan error, 1)
	go func() {
		h.done <- h.qpdownCmd.Wait()
	}()
}

// Wait waits for qpdown to exit and returns its exit code.
func (h *TestHarness) Wait(timeout time.Duration) int {
	h.t.Helper()

	select {
	case err := <-h.done:
		h.t.Logf("qpdown stderr:\n%s", h.stderr.String())
		if err == nil {
			return 0
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		h.t.Fatalf("qpdown failed: %v", err)
	case <-time.After(timeout):
		h.t.Fatalf("qpdown did not exit within %v\nstderr:\n%s", timeout, h.stderr.String())
	}
	return -1
}

// Stdout returns what qpdown printed to stdout.
func (h *TestHarness) Stdout() string {
	return h.stdout.String()
}

// FFmpegCalls returns the argument lists the fake ffmpeg was invoked with.
func (h *TestHarness) FFmpegCalls() []string {
	return hlstest.FakeFFmpegCalls(h.t, h.workDir)
}

// FetchHealth fetches the status endpoint and decodes its JSON response.
func (h *TestHarness) FetchHealth() (map[string]interface{}, error) {
	url := fmt.Sprintf("http://localhost:%d/health", h.statusPort)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var health map[string]interface{}
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, err
	}
	return health, nil
}

// Cleanup stops all running services.
func (h *TestHarness) Cleanup() {
	h.t.Helper()

	// Stop qpdown
	if h.cancel != nil {
		h.cancel()
	}
	if h.done != nil {
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
		}
	}

	// Stop HTTP server
	if h.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.httpServer.Shutdown(ctx)
	}
}

// findQPDownBinary locates the qpdown binary.
func (h *TestHarness) findQPDownBinary() string {
	h.t.Helper()

	// Try several possible locations
	candidates := []string{
		"../../qpdown",        // From test/integration
		"./qpdown",            // From project root
		"../qpdown",           // From test directory
		"./cmd/qpdown/qpdown", // Built in place
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			h.t.Logf("Found qpdown binary at: %s", absPath)
			return absPath
		}
	}

	h.t.Skip("qpdown binary not found. Run 'go build -o qpdown ./cmd/qpdown' first")
	return ""
}

// waitForServer waits for a server to become available.
func (h *TestHarness) waitForServer(url string, timeout time.Duration) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	h.t.Fatalf("server at %s did not become available within %v", url, timeout)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

// WaitForCondition polls until a condition is met or timeout occurs.
func (h *TestHarness) WaitForCondition(condition func() bool, timeout time.Duration, description string) {
	h.t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		<-ticker.C
		if time.Now().After(deadline) {
			h.t.Fatalf("timeout waiting for condition: %s", description)
		}
	}
}
