// The qpdown command downloads an HLS stream into a single media file.
//
// It resolves the playlist at --input, lets the user pick a variant when the playlist is a
// master playlist, concatenates all media segments in order and remuxes the result with
// ffmpeg into --output.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agleyzer/qpdown/internal/assembler"
	"github.com/agleyzer/qpdown/internal/fetch"
	"github.com/agleyzer/qpdown/internal/logging"
	"github.com/agleyzer/qpdown/internal/remux"
	"github.com/agleyzer/qpdown/internal/selector"
	"github.com/agleyzer/qpdown/internal/server"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	version = "1.0.0"

	envPrefix = "QPDOWN"
)

// options are the resolved command settings, from flags or QPDOWN_* variables.
type options struct {
	Input       string
	Output      string
	Variant     string
	Concurrency int
	Retries     uint
	Timeout     time.Duration
	Headers     []string
	UserAgent   string
	FFmpeg      string
	HWAccel     string
	KeepTS      bool
	NoRemux     bool
	NoProgress  bool
	StatusPort  int
	Verbose     bool
	LogFile     string
	LogJSON     bool
}

// exitError carries a failure that has already been logged.
type exitError struct {
	err error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported *exitError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "qpdown -i <playlist-url> -o <output-file>",
		Short: "Download an HLS stream into a single media file",
		Long: `qpdown fetches an HLS playlist, lets you choose a variant of a master playlist,
downloads every media segment in order and remuxes them with ffmpeg.

Every flag can also be set with a QPDOWN_<FLAG> environment variable,
for example QPDOWN_CONCURRENCY=4 or QPDOWN_NO_REMUX=true.`,
		Example: `  qpdown -i https://example.com/master.m3u8 -o movie.mp4
  qpdown -i https://example.com/index.m3u8 -o movie.mkv --concurrency 4 --retries 3
  qpdown -i https://example.com/master.m3u8 -o movie.mp4 --variant best --header "Referer: https://example.com/"`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(v, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), opts, stdin, stdout, stderr)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "URL of the HLS playlist (master or media)")
	flags.StringP("output", "o", "", "Output file; the extension selects the container")
	flags.String("variant", "", "Variant of a master playlist: best, worst or an index (prompts when empty)")
	flags.Int("concurrency", 1, "Number of segments downloaded ahead of the writer")
	flags.Uint("retries", 0, "Retry attempts for network errors and 5xx responses")
	flags.Duration("timeout", 30*time.Second, "Timeout for a single HTTP request")
	flags.StringArray("header", nil, "Extra request header as 'Name: value' (repeatable)")
	flags.String("user-agent", "qpdown/"+version, "User-Agent for HTTP requests")
	flags.String("ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	flags.String("hwaccel", remux.HWAccelAuto, "ffmpeg hardware acceleration: empty to detect, 'none' to disable, or a method name")
	flags.Bool("keep-ts", false, "Keep the intermediate .ts file after remuxing")
	flags.Bool("no-remux", false, "Stop after writing the concatenated .ts file")
	flags.Bool("no-progress", false, "Disable the progress bar")
	flags.Int("status-port", 0, "Serve download status on this port (0 disables)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("log-file", "", "Also write logs to this file, rotated")
	flags.Bool("log-json", false, "Write logs as JSON")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return cmd
}

func loadOptions(v *viper.Viper, args []string) (options, error) {
	opts := options{
		Input:       v.GetString("input"),
		Output:      v.GetString("output"),
		Variant:     v.GetString("variant"),
		Concurrency: v.GetInt("concurrency"),
		Retries:     v.GetUint("retries"),
		Timeout:     v.GetDuration("timeout"),
		Headers:     headerValues(v),
		UserAgent:   v.GetString("user-agent"),
		FFmpeg:      v.GetString("ffmpeg"),
		HWAccel:     v.GetString("hwaccel"),
		KeepTS:      v.GetBool("keep-ts"),
		NoRemux:     v.GetBool("no-remux"),
		NoProgress:  v.GetBool("no-progress"),
		StatusPort:  v.GetInt("status-port"),
		Verbose:     v.GetBool("verbose"),
		LogFile:     v.GetString("log-file"),
		LogJSON:     v.GetBool("log-json"),
	}

	if len(args) == 1 {
		if opts.Input != "" {
			return opts, fmt.Errorf("playlist URL given both as argument and --input")
		}
		opts.Input = args[0]
	}

	// Validate flags
	if opts.Input == "" {
		return opts, fmt.Errorf("--input is required")
	}
	if opts.Output == "" {
		return opts, fmt.Errorf("--output is required")
	}
	if opts.Concurrency < 1 {
		return opts, fmt.Errorf("concurrency must be at least 1, got %d", opts.Concurrency)
	}
	if opts.StatusPort < 0 || opts.StatusPort > 65535 {
		return opts, fmt.Errorf("status port must be between 0 and 65535")
	}

	return opts, nil
}

// headerValues returns the --header values. A QPDOWN_HEADER string holds one header
// per line, so values containing spaces survive.
func headerValues(v *viper.Viper) []string {
	switch raw := v.Get("header").(type) {
	case []string:
		return raw
	case string:
		var headers []string
		for _, line := range strings.Split(raw, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				headers = append(headers, line)
			}
		}
		return headers
	case nil:
		return nil
	default:
		return v.GetStringSlice("header")
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	// Setup logger
	logger, closer, err := logging.New(logging.Options{
		Name:    "qpdown",
		Verbose: opts.Verbose,
		JSON:    opts.LogJSON,
		File:    opts.LogFile,
		Output:  stderr,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	logger = logger.With("run", uuid.NewString())
	logger.Debug("qpdown starting", "version", version)

	a, err := newAssembler(opts, stdin, stdout, stderr, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return &exitError{err: err}
	}

	if opts.StatusPort > 0 {
		srvCtx, stopServer := context.WithCancel(ctx)
		defer stopServer()

		srv := server.New(a, opts.StatusPort, logger)
		go func() {
			if err := srv.Start(srvCtx); err != nil {
				logger.Warn("status server stopped", "error", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil {
		var stageErr *assembler.StageError
		if errors.As(err, &stageErr) {
			logger.Error("download failed", "stage", stageErr.Stage, "error", stageErr.Err)
		} else {
			logger.Error("download failed", "error", err)
		}
		return &exitError{err: err}
	}

	return nil
}

// newAssembler wires the collaborators for one run.
func newAssembler(opts options, stdin io.Reader, stdout, stderr io.Writer, logger hclog.Logger) (*assembler.Assembler, error) {
	headers, err := fetch.ParseHeaders(opts.Headers)
	if err != nil {
		return nil, err
	}

	fetcher, err := fetch.New(fetch.Config{
		Timeout:   opts.Timeout,
		Retries:   opts.Retries,
		UserAgent: opts.UserAgent,
		Headers:   headers,
	}, logger)
	if err != nil {
		return nil, err
	}

	sel, err := selector.FromFlag(opts.Variant, stdin, stdout, logger)
	if err != nil {
		return nil, err
	}

	deps := assembler.Deps{
		Fetcher:  fetcher,
		Selector: sel,
		Fs:       afero.NewOsFs(),
	}

	if !opts.NoRemux {
		ffmpeg, err := remux.NewFFmpeg(remux.Config{Path: opts.FFmpeg, HWAccel: opts.HWAccel}, logger)
		if err != nil {
			return nil, err
		}
		deps.Remuxer = ffmpeg
	}

	if !opts.NoProgress {
		deps.Progress = newBarProgress(stderr)
	}

	return assembler.New(assembler.Config{
		Input:            opts.Input,
		Output:           opts.Output,
		Concurrency:      opts.Concurrency,
		KeepIntermediate: opts.KeepTS,
		SkipRemux:        opts.NoRemux,
	}, deps, logger)
}
