// Package logging builds the command's hclog logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	// Name is the root logger name.
	Name string
	// Verbose enables debug output.
	Verbose bool
	// JSON switches to JSON lines.
	JSON bool
	// File additionally writes logs to a rotated file.
	File string
	// Output is the console destination, stderr when nil.
	Output io.Writer
}

// Rotation limits for the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// New returns a logger and a closer for the log file, if any.
func New(opts Options) (hclog.Logger, io.Closer, error) {
	if opts.Name == "" {
		opts.Name = "qpdown"
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := hclog.Info
	if opts.Verbose {
		level = hclog.Debug
	}

	// color only on a terminal, never around JSON records
	color := hclog.ColorOff
	if _, isFile := out.(*os.File); isFile && !opts.JSON {
		color = hclog.AutoColor
	}

	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if opts.File == "-" {
			return nil, nil, fmt.Errorf("invalid log file %q", opts.File)
		}

		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated
		color = hclog.ColorOff
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
		Color:      color,
	})

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
