// Package sink implements the append-only file that collects downloaded segments.
package sink

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// IntermediateExt is appended to the output path to name the concatenated segment file.
const IntermediateExt = ".ts"

// IntermediatePath returns the path of the intermediate file for an output path.
func IntermediatePath(output string) string {
	return output + IntermediateExt
}

// Sink is an append-only byte destination. It is not safe for concurrent writers;
// the owner serializes appends.
type Sink struct {
	fs      afero.Fs
	path    string
	file    afero.File
	written int64
	once    sync.Once
	err     error
}

// Create truncates or creates the file at path and opens it for appending.
func Create(fs afero.Fs, path string) (*Sink, error) {
	if _, err := fs.Stat(path); err == nil {
		if err := fs.Remove(path); err != nil {
			return nil, fmt.Errorf("remove previous %s: %w", path, err)
		}
	}

	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	return &Sink{fs: fs, path: path, file: f}, nil
}

// Path returns the sink's file path.
func (s *Sink) Path() string { return s.path }

// Written returns the number of bytes appended so far.
func (s *Sink) Written() int64 { return s.written }

// Append writes p to the end of the file.
func (s *Sink) Append(p []byte) error {
	n, err := s.file.Write(p)
	s.written += int64(n)
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the file. It is safe to call more than once.
func (s *Sink) Close() error {
	s.once.Do(func() {
		if err := s.file.Sync(); err != nil {
			s.err = fmt.Errorf("sync %s: %w", s.path, err)
		}
		if err := s.file.Close(); err != nil && s.err == nil {
			s.err = fmt.Errorf("close %s: %w", s.path, err)
		}
	})
	return s.err
}

// Remove closes the sink and deletes its file if it still exists.
func (s *Sink) Remove() error {
	s.Close()

	if _, err := s.fs.Stat(s.path); err != nil {
		return nil
	}
	if err := s.fs.Remove(s.path); err != nil {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}
