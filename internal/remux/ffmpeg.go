// Package remux repackages the concatenated segment stream with ffmpeg.
package remux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Remuxer converts the intermediate transport stream into the final container.
type Remuxer interface {
	Remux(ctx context.Context, input, output string) error
}

// HWAccel values with special meaning.
const (
	HWAccelAuto = ""
	HWAccelNone = "none"
)

// Config holds the ffmpeg settings.
type Config struct {
	// Path is the ffmpeg executable name or path
	Path string
	// HWAccel is HWAccelAuto to probe, HWAccelNone to disable, or an ffmpeg -hwaccel value
	HWAccel string
}

// FFmpeg runs ffmpeg to copy audio and video streams into a new container.
type FFmpeg struct {
	path    string
	hwaccel string
	logger  hclog.Logger

	once  sync.Once
	accel []string
}

// NewFFmpeg locates the ffmpeg binary. It fails when ffmpeg is not installed.
func NewFFmpeg(config Config, logger hclog.Logger) (*FFmpeg, error) {
	if config.Path == "" {
		config.Path = "ffmpeg"
	}

	path, err := exec.LookPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("please install ffmpeg: %w", err)
	}

	return &FFmpeg{
		path:    path,
		hwaccel: strings.ToLower(strings.TrimSpace(config.HWAccel)),
		logger:  logger.Named("ffmpeg"),
	}, nil
}

// HWAccelArgs returns the -hwaccel arguments for this run. Capabilities are probed
// with "ffmpeg -hwaccels" at most once.
func (f *FFmpeg) HWAccelArgs(ctx context.Context) []string {
	f.once.Do(func() {
		switch f.hwaccel {
		case HWAccelNone:
			f.accel = nil
		case HWAccelAuto:
			f.accel = f.probe(ctx)
		default:
			f.accel = []string{"-hwaccel", f.hwaccel}
		}
		f.logger.Info("using hwaccel params", "args", f.accel)
	})
	return f.accel
}

func (f *FFmpeg) probe(ctx context.Context) []string {
	out, err := exec.CommandContext(ctx, f.path, "-hide_banner", "-hwaccels").Output()
	if err != nil {
		f.logger.Warn("hwaccel probe failed, disabling hwaccel", "error", err)
		return nil
	}

	for _, method := range ParseHWAccels(string(out)) {
		// only NVIDIA decoding is known to work with stream copy here
		if method == "cuda" {
			return []string{"-hwaccel", "cuda"}
		}
	}
	return nil
}

// ParseHWAccels extracts method names from "ffmpeg -hwaccels" output.
func ParseHWAccels(out string) []string {
	var methods []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		methods = append(methods, line)
	}
	return methods
}

// Args builds the ffmpeg command line for a stream copy remux.
func Args(accel []string, input, output string) []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, accel...)
	return append(args,
		"-i", input,
		"-vcodec", "copy",
		"-acodec", "copy",
		"-map", "0:v",
		"-map", "0:a",
		output,
	)
}

// Remux copies input's streams into output. Success is ffmpeg's exit status.
func (f *FFmpeg) Remux(ctx context.Context, input, output string) error {
	args := Args(f.HWAccelArgs(ctx), input, output)
	f.logger.Info("final ffmpeg args", "path", f.path, "args", args)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
