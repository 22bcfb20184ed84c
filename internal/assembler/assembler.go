// Package assembler resolves an HLS playlist to its media segments and concatenates
// them, in playlist order, into one file that is then remuxed.
package assembler

//go:generate mockgen -destination=mock_remuxer_test.go -package=assembler github.com/agleyzer/qpdown/internal/remux Remuxer
//go:generate mockgen -destination=mock_selector_test.go -package=assembler github.com/agleyzer/qpdown/internal/selector Selector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/agleyzer/qpdown/internal/fetch"
	"github.com/agleyzer/qpdown/internal/playlist"
	"github.com/agleyzer/qpdown/internal/remux"
	"github.com/agleyzer/qpdown/internal/segment"
	"github.com/agleyzer/qpdown/internal/selector"
	"github.com/agleyzer/qpdown/internal/sink"
	"github.com/agleyzer/qpdown/internal/variant"
	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-hclog"
	"github.com/sourcegraph/conc/stream"
	"github.com/spf13/afero"
)

// Assembler runs one download: Init, FetchRoot, Classify, optionally SelectVariant and
// FetchMedia, ExtractSegments, FetchSegments and Finalize. Any failure ends the run.
type Assembler struct {
	config   Config
	fetcher  fetch.Fetcher
	selector selector.Selector
	remuxer  remux.Remuxer
	fs       afero.Fs
	progress Progress
	logger   hclog.Logger

	mu    sync.RWMutex
	stats Stats
}

// New creates an assembler for a single run.
func New(config Config, deps Deps, logger hclog.Logger) (*Assembler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := deps.validate(config); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &Assembler{
		config:   config,
		fetcher:  deps.Fetcher,
		selector: deps.Selector,
		remuxer:  deps.Remuxer,
		fs:       deps.Fs,
		progress: deps.Progress,
		logger:   logger.Named("assembler"),
		stats: Stats{
			Stage:        StageInit,
			Intermediate: sink.IntermediatePath(config.Output),
			Output:       config.Output,
		},
	}, nil
}

// Run executes the state machine. A failed run returns a *StageError; bytes already
// appended to the intermediate file are left in place and must be treated as invalid.
func (a *Assembler) Run(ctx context.Context) error {
	err := a.run(ctx)
	if err != nil {
		a.mu.Lock()
		a.stats.Stage = StageFailed
		a.stats.Err = err.Error()
		a.mu.Unlock()
		return err
	}

	a.setStage(StageDone)
	return nil
}

func (a *Assembler) run(ctx context.Context) error {
	fail := func(stage Stage, err error) error {
		return &StageError{Stage: stage, Err: err}
	}

	// Init
	a.setStage(StageInit)
	if !playlist.IsHTTPURL(a.config.Input) {
		return fail(StageInit, fmt.Errorf("%w: %q", ErrInvalidInputURL, a.config.Input))
	}
	if a.config.Output == "" {
		return fail(StageInit, fmt.Errorf("%w: empty path", ErrInvalidOutputPath))
	}

	out, err := sink.Create(a.fs, sink.IntermediatePath(a.config.Output))
	if err != nil {
		return fail(StageInit, fmt.Errorf("%w: %v", ErrInvalidOutputPath, err))
	}
	defer out.Close()

	// FetchRoot
	a.setStage(StageFetchRoot)
	a.logger.Info("getting playlist...", "url", a.config.Input)
	body, err := a.fetcher.Fetch(ctx, a.config.Input)
	if err != nil {
		return fail(StageFetchRoot, err)
	}

	// Classify
	a.setStage(StageClassify)
	kind, err := playlist.Classify(string(body))
	if err != nil {
		if errors.Is(err, playlist.ErrNotAPlaylist) {
			a.logger.Error("root url did not return a playlist", "content_type", mimetype.Detect(body).String())
		}
		return fail(StageClassify, err)
	}
	a.logger.Info("detected playlist type", "kind", kind)
	a.update(func(s *Stats) { s.Kind = kind.String() })

	content := string(body)
	playlistURL := a.config.Input

	if kind == playlist.Master {
		// SelectVariant
		a.setStage(StageSelectVariant)
		v, err := a.selectVariant(ctx, content)
		if err != nil {
			return fail(StageSelectVariant, err)
		}
		a.update(func(s *Stats) { s.Variant = v.String() })

		// FetchMedia
		a.setStage(StageFetchMedia)
		ref, err := playlist.ResolveVariantURL(content, v)
		if err != nil {
			return fail(StageFetchMedia, err)
		}
		playlistURL = playlist.Resolve(playlist.BasePath(a.config.Input), ref)

		a.logger.Info("getting segment playlist...", "url", playlistURL)
		body, err = a.fetcher.Fetch(ctx, playlistURL)
		if err != nil {
			return fail(StageFetchMedia, err)
		}
		content = string(body)

		if err := checkMediaPlaylist(content); err != nil {
			return fail(StageFetchMedia, err)
		}
	}
	a.update(func(s *Stats) { s.PlaylistURL = playlistURL })

	// ExtractSegments
	a.setStage(StageExtractSegments)
	a.logSummary(content)
	urls, err := playlist.ExtractSegments(content, playlist.BasePath(playlistURL))
	if err != nil {
		return fail(StageExtractSegments, err)
	}
	if len(urls) == 0 {
		return fail(StageExtractSegments, fmt.Errorf("%w: playlist contains no segments", playlist.ErrUnknownPlaylistType))
	}
	a.logger.Info("got segments", "count", len(urls))
	a.update(func(s *Stats) { s.Segments = len(urls) })

	// FetchSegments
	a.setStage(StageFetchSegments)
	if err := a.fetchSegments(ctx, segment.FromURLs(urls), out); err != nil {
		return fail(StageFetchSegments, err)
	}

	// Finalize
	a.setStage(StageFinalize)
	if err := out.Close(); err != nil {
		return fail(StageFinalize, err)
	}

	if a.config.SkipRemux {
		a.logger.Info("done!", "path", out.Path(), "bytes", out.Written())
		return nil
	}

	a.logger.Info("converting .ts file", "format", filepath.Ext(a.config.Output), "output", a.config.Output)
	if err := a.remuxer.Remux(ctx, out.Path(), a.config.Output); err != nil {
		a.logger.Warn("keeping intermediate file after failed remux", "path", out.Path())
		return fail(StageFinalize, err)
	}

	if !a.config.KeepIntermediate {
		a.logger.Info("removing the .ts file...", "path", out.Path())
		if err := out.Remove(); err != nil {
			return fail(StageFinalize, err)
		}
	}

	a.logger.Info("done!", "output", a.config.Output)
	return nil
}

// selectVariant returns the only variant, or asks the selector until it returns an
// index inside the variant list.
func (a *Assembler) selectVariant(ctx context.Context, content string) (variant.Variant, error) {
	variants, err := playlist.ExtractVariants(content)
	if err != nil {
		return variant.Variant{}, err
	}

	for i, v := range variants {
		a.logger.Debug("variant", "index", i, "attributes", v.String())
	}

	if len(variants) == 1 {
		a.logger.Info("single variant, selecting it", "variant", variants[0].Label())
		return variants[0], nil
	}

	for {
		idx, err := a.selector.Select(ctx, variants)
		if err != nil {
			return variant.Variant{}, err
		}
		if idx >= 0 && idx < len(variants) {
			a.logger.Info("selected variant", "index", idx, "variant", variants[idx].Label())
			return variants[idx], nil
		}

		a.logger.Error("invalid resolution!", "index", idx, "variants", len(variants))
		if err := ctx.Err(); err != nil {
			return variant.Variant{}, err
		}
	}
}

// checkMediaPlaylist rejects a variant URI that does not point at a media playlist.
func checkMediaPlaylist(content string) error {
	kind, err := playlist.Classify(content)
	if err != nil {
		return err
	}
	if kind != playlist.Media {
		return fmt.Errorf("%w: variant uri points at a %s playlist", playlist.ErrInvalidPlaylistType, kind)
	}
	return nil
}

func (a *Assembler) logSummary(content string) {
	summary, err := playlist.Probe(content)
	if err != nil {
		a.logger.Debug("playlist probe failed", "error", err)
		return
	}

	a.logger.Info("media playlist",
		"segments", summary.Segments,
		"duration", time.Duration(summary.TotalDuration*float64(time.Second)).Round(time.Second),
		"targetDuration", summary.TargetDuration,
		"longestSegment", summary.LongestSegment,
	)

	if summary.Encrypted {
		a.logger.Warn("segments are encrypted, output will not be playable")
	}
	if !summary.Closed {
		a.logger.Warn("playlist has no end tag, downloading the segments listed now")
	}
}

// fetchSegments appends every segment to out in sequence order.
func (a *Assembler) fetchSegments(ctx context.Context, segments []segment.Segment, out *sink.Sink) error {
	a.progress.Start(len(segments))
	defer a.progress.Finish()

	if a.config.Concurrency <= 1 {
		for _, seg := range segments {
			data, err := a.fetcher.Fetch(ctx, seg.URL)
			if err != nil {
				return fmt.Errorf("segment %d: %w", seg.Sequence, err)
			}
			if err := a.write(out, seg, data); err != nil {
				return err
			}
		}
		return nil
	}

	return a.prefetch(ctx, segments, out)
}

// prefetch downloads up to Concurrency segments at once. conc/stream runs the
// callbacks one at a time in submission order, so writes stay in playlist order.
func (a *Assembler) prefetch(ctx context.Context, segments []segment.Segment, out *sink.Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		written  int
	)

	s := stream.New().WithMaxGoroutines(a.config.Concurrency)
	for _, seg := range segments {
		seg := seg
		if ctx.Err() != nil {
			break
		}

		s.Go(func() stream.Callback {
			data, err := a.fetcher.Fetch(ctx, seg.URL)
			return func() {
				if firstErr != nil {
					return
				}
				if err != nil {
					firstErr = fmt.Errorf("segment %d: %w", seg.Sequence, err)
					cancel()
					return
				}
				if err := a.write(out, seg, data); err != nil {
					firstErr = err
					cancel()
					return
				}
				written++
			}
		})
	}
	s.Wait()

	if firstErr != nil {
		return firstErr
	}
	if written < len(segments) {
		return fmt.Errorf("stopped after %d of %d segments: %w", written, len(segments), context.Cause(ctx))
	}
	return nil
}

func (a *Assembler) write(out *sink.Sink, seg segment.Segment, data []byte) error {
	if err := out.Append(data); err != nil {
		return fmt.Errorf("segment %d: %w", seg.Sequence, err)
	}

	a.update(func(s *Stats) {
		s.Completed++
		s.Bytes += int64(len(data))
	})
	a.progress.Segment(seg.Sequence, len(data))
	a.logger.Trace("segment appended", "sequence", seg.Sequence, "bytes", len(data))

	return nil
}

// Stats returns a snapshot of the run. It is safe to call while Run is in progress.
func (a *Assembler) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// GetStats returns current statistics about the run.
func (a *Assembler) GetStats() map[string]interface{} {
	return a.Stats().Map()
}

func (a *Assembler) setStage(stage Stage) {
	a.update(func(s *Stats) { s.Stage = stage })
	a.logger.Debug("entering stage", "stage", stage)
}

func (a *Assembler) update(fn func(s *Stats)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.stats)
}
