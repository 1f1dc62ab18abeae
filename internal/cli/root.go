// Package cli wires configuration, logging and the scan pipeline into the
// playlistcheck command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"playlistcheck/internal/config"
	"playlistcheck/internal/discovery"
	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/metrics"
	"playlistcheck/internal/pipeline"
)

// options holds the raw flag values. Only flags the user set explicitly
// override the file and environment layers.
type options struct {
	configFile string
	logLevel   string
	logFormat  string

	dir           string
	output        string
	format        string
	textOutput    string
	badgeOutput   string
	metricsOutput string
	historyDB     string
	timeout       float64
	delay         time.Duration
	excludeChars  string
	maxRedirects  int
	insecureTLS   bool
	userAgent     string
	lenient       bool

	addr string
}

// NewRootCommand builds the command tree. Logs and progress go to stdout,
// errors to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "playlistcheck",
		Short: "Scan playlist files and probe every stream URL for liveness",
		Long: `playlistcheck walks a directory of playlists, extracts every http(s) URL,
probes each unique URL once (HEAD, falling back to GET) and writes a JSON or
text report, with an optional shields.io badge.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, stdout)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cfg)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", defaults.Log.Format, "Log format (console or json)")

	f := cmd.Flags()
	f.StringVarP(&opts.dir, "dir", "d", defaults.PlaylistDir, "Directory to scan for playlists")
	f.StringVarP(&opts.output, "output", "o", "", "Path of the report file (required)")
	f.StringVar(&opts.format, "format", defaults.Format, "Report format for --output (json or text)")
	f.StringVar(&opts.textOutput, "text-output", "", "Also write the plain-text summary to this path")
	f.StringVar(&opts.badgeOutput, "badge-output", "", "Write a shields.io endpoint badge to this path")
	f.StringVar(&opts.metricsOutput, "metrics-output", "", "Write a Prometheus textfile to this path")
	f.StringVar(&opts.historyDB, "history-db", "", "Record the run in this SQLite database")
	f.Float64VarP(&opts.timeout, "timeout", "t", defaults.Timeout.Seconds(), "Per-request timeout in seconds")
	f.DurationVar(&opts.delay, "delay", defaults.Delay, "Pause between consecutive probes")
	f.StringVar(&opts.excludeChars, "exclude-chars", defaults.ExcludeChars, "Characters, besides whitespace, that end a URL")
	f.IntVar(&opts.maxRedirects, "max-redirects", defaults.MaxRedirects, "Maximum redirects followed per request")
	f.BoolVar(&opts.insecureTLS, "insecure-tls", false, "Skip TLS certificate verification")
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header (default playlistcheck/<version>)")
	f.BoolVar(&opts.lenient, "lenient", false, "Embed a missing-directory error in the report and exit 0")

	cmd.AddCommand(newServeCommand(opts, stdout), newVersionCommand(stdout))
	return cmd
}

// load resolves the configuration: defaults, then the YAML file, then
// PLAYLISTCHECK_* variables, then explicitly set flags.
func (o *options) load(cmd *cobra.Command, logOut io.Writer) (config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		if err := config.LoadFile(o.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	config.ApplyEnv(&cfg)

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("log-level", func() { cfg.Log.Level = o.logLevel })
	set("log-format", func() { cfg.Log.Format = o.logFormat })
	set("dir", func() { cfg.PlaylistDir = o.dir })
	set("output", func() { cfg.Output = o.output })
	set("format", func() { cfg.Format = o.format })
	set("text-output", func() { cfg.TextOutput = o.textOutput })
	set("badge-output", func() { cfg.BadgeOutput = o.badgeOutput })
	set("metrics-output", func() { cfg.MetricsOutput = o.metricsOutput })
	set("history-db", func() { cfg.HistoryDB = o.historyDB })
	set("timeout", func() { cfg.Timeout = time.Duration(o.timeout * float64(time.Second)) })
	set("delay", func() { cfg.Delay = o.delay })
	set("exclude-chars", func() { cfg.ExcludeChars = o.excludeChars })
	set("max-redirects", func() { cfg.MaxRedirects = o.maxRedirects })
	set("insecure-tls", func() { cfg.InsecureTLS = o.insecureTLS })
	set("user-agent", func() { cfg.UserAgent = o.userAgent })
	set("lenient", func() { cfg.Lenient = o.lenient })
	set("addr", func() { cfg.Serve.Addr = o.addr })

	xlog.Configure(xlog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	return cfg, nil
}

func runScan(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var rec *metrics.Recorder
	if cfg.MetricsOutput != "" {
		rec = metrics.NewRecorder()
	}
	rep, err := pipeline.Run(ctx, cfg, pipeline.Deps{Metrics: rec})
	if err != nil {
		return err
	}
	// Outputs are still written after an interrupt.
	return pipeline.WriteOutputs(context.WithoutCancel(ctx), cfg, rep, rec)
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, discovery.ErrDirectoryNotFound) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "playlistcheck: %v\n", err)
		}
		return 1
	}
	return 0
}
