package hlstest

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FakeFFmpegAccelsEnv lists the hwaccel methods the fake ffmpeg reports.
const FakeFFmpegAccelsEnv = "FAKE_FFMPEG_ACCELS"

// FakeFFmpegFailEnv makes the fake ffmpeg exit non-zero when set to 1.
const FakeFFmpegFailEnv = "FAKE_FFMPEG_FAIL"

const fakeFFmpegScript = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/calls.log"
case "$*" in
*-hwaccels*)
	echo "Hardware acceleration methods:"
	for m in $` + FakeFFmpegAccelsEnv + `; do echo "$m"; done
	exit 0
	;;
esac
if [ "$` + FakeFFmpegFailEnv + `" = "1" ]; then
	echo "Invalid data found when processing input" >&2
	exit 1
fi
in=""
out=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-i" ]; then in="$a"; fi
	prev="$a"
	out="$a"
done
cp "$in" "$out"
`

// WriteFakeFFmpeg writes a shell script standing in for ffmpeg into dir and returns
// its path. The script copies the -i input to the last argument and appends every
// invocation to calls.log next to itself.
func WriteFakeFFmpeg(t testing.TB, dir string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg requires a POSIX shell")
	}

	path := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte(fakeFFmpegScript), 0o755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return path
}

// FakeFFmpegCalls returns the argument lines the fake ffmpeg in dir was invoked with.
func FakeFFmpegCalls(t testing.TB, dir string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read fake ffmpeg log: %v", err)
	}

	return strings.FieldsFunc(string(data), func(r rune) bool { return r == '\n' })
}
