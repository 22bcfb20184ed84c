package assembler

import (
	"fmt"

	"github.com/agleyzer/qpdown/internal/fetch"
	"github.com/agleyzer/qpdown/internal/remux"
	"github.com/agleyzer/qpdown/internal/selector"
	"github.com/spf13/afero"
)

// Config holds the settings of one download.
type Config struct {
	// Input is the root playlist URL.
	Input string
	// Output is the final file path; its extension picks the container.
	Output string
	// Concurrency is the number of segments fetched ahead of the writer. 1 downloads sequentially.
	Concurrency int
	// KeepIntermediate keeps the concatenated .ts file after a successful remux.
	KeepIntermediate bool
	// SkipRemux stops after the .ts file is complete.
	SkipRemux bool
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}

	// Set defaults
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}

	return nil
}

// Deps are the collaborators of an Assembler.
type Deps struct {
	// Fetcher retrieves playlists and segments. Required.
	Fetcher fetch.Fetcher
	// Selector picks a variant when a master playlist has more than one. Required.
	Selector selector.Selector
	// Remuxer produces the final output. Required unless Config.SkipRemux is set.
	Remuxer remux.Remuxer
	// Fs holds the intermediate file. Defaults to the OS filesystem.
	Fs afero.Fs
	// Progress receives download progress. Optional.
	Progress Progress
}

func (d *Deps) validate(config Config) error {
	if d.Fetcher == nil {
		return fmt.Errorf("fetcher is required")
	}
	if d.Selector == nil {
		return fmt.Errorf("selector is required")
	}
	if d.Remuxer == nil && !config.SkipRemux {
		return fmt.Errorf("remuxer is required unless remuxing is skipped")
	}

	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Progress == nil {
		d.Progress = nopProgress{}
	}

	return nil
}
