// Package integration provides integration tests for qpdown.
package integration

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/agleyzer/qpdown/internal/hlstest"
)

// TestMediaPlaylist downloads a media playlist, watches progress on the status
// endpoint and checks the remuxed output.
func TestMediaPlaylist(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	want := harness.AddMedia("/vod", 10)
	harness.StartHTTPServer(100 * time.Millisecond)

	output := harness.OutputPath("movie.mp4")
	harness.StartQPDown("",
		"-i", harness.OriginURL("/vod/index.m3u8"),
		"-o", output,
		"--concurrency", "2",
	)

	// Phase 1: the status endpoint reports segment progress while downloading
	t.Log("Phase 1: Waiting for segment download to start...")
	harness.WaitForCondition(func() bool {
		health, err := harness.FetchHealth()
		if err != nil {
			return false
		}
		stats, ok := health["stats"].(map[string]interface{})
		return ok && stats["stage"] == "fetch-segments" && stats["total_segments"] == float64(10)
	}, 10*time.Second, "status endpoint reports fetch-segments")
	t.Log("Phase 1: Progress reported ✓")

	// Phase 2: the run completes and the output matches the segments
	t.Log("Phase 2: Waiting for qpdown to finish...")
	if code := harness.Wait(30 * time.Second); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("output does not match concatenated segments (%d bytes, want %d)", len(got), len(want))
	}

	if _, err := os.Stat(output + ".ts"); !os.IsNotExist(err) {
		t.Error("intermediate .ts file should be removed after remux")
	}

	// Phase 3: ffmpeg was probed for hwaccels and then asked to copy streams
	calls := harness.FFmpegCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 ffmpeg calls, got %d: %v", len(calls), calls)
	}
	if !strings.Contains(calls[0], "-hwaccels") {
		t.Errorf("first ffmpeg call should probe hwaccels, got %q", calls[0])
	}
	for _, arg := range []string{"-hwaccel cuda", "-vcodec copy", "-acodec copy", "-map 0:v", "-map 0:a"} {
		if !strings.Contains(calls[1], arg) {
			t.Errorf("remux call missing %q: %q", arg, calls[1])
		}
	}
	t.Log("Phase 3: Remux verified ✓")
}

// TestMasterPlaylist selects a variant through the interactive prompt.
func TestMasterPlaylist(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.AddFile("/master.m3u8", []byte(hlstest.Master([]hlstest.StreamInf{
		{Bandwidth: 1280000, Resolution: "640x360", Codecs: "avc1.4d401e,mp4a.40.2", URI: "low/index.m3u8"},
		{Bandwidth: 2560000, Resolution: "1280x720", Codecs: "avc1.4d401f,mp4a.40.2", URI: "mid/index.m3u8"},
		{Bandwidth: 7680000, Resolution: "1920x1080", Codecs: "avc1.640028,mp4a.40.2", URI: "high/index.m3u8"},
	})))
	harness.AddMedia("/low", 3)
	want := harness.AddMedia("/mid", 4)
	harness.AddMedia("/high", 5)
	harness.StartHTTPServer(0)

	output := harness.OutputPath("movie.mkv")
	harness.StartQPDown("abc\n1\n",
		"-i", harness.OriginURL("/master.m3u8"),
		"-o", output,
		"--keep-ts",
	)

	if code := harness.Wait(30 * time.Second); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	stdout := harness.Stdout()
	for _, line := range []string{"0 : 640x360", "1 : 1280x720", "2 : 1920x1080"} {
		if !strings.Contains(stdout, line) {
			t.Errorf("prompt missing %q:\n%s", line, stdout)
		}
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(got) != string(want) {
		t.Error("output does not match the selected variant's segments")
	}

	ts, err := os.ReadFile(output + ".ts")
	if err != nil {
		t.Fatalf("--keep-ts should keep the intermediate file: %v", err)
	}
	if string(ts) != string(want) {
		t.Error("intermediate file does not match the selected variant's segments")
	}
}

// TestMissingSegment checks that a failed segment aborts the run with exit code 1.
func TestMissingSegment(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	harness := NewTestHarness(t)
	defer harness.Cleanup()

	harness.AddFile("/broken/index.m3u8", []byte(hlstest.Media(hlstest.Segments("missing", 3, 2))))
	harness.StartHTTPServer(0)

	output := harness.OutputPath("movie.mp4")
	harness.StartQPDown("",
		"-i", harness.OriginURL("/broken/index.m3u8"),
		"-o", output,
	)

	if code := harness.Wait(30 * time.Second); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("no output should be produced when a segment fails")
	}
	if len(harness.FFmpegCalls()) > 1 {
		t.Errorf("ffmpeg should not remux after a failed download: %v", harness.FFmpegCalls())
	}
}
