package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"playlistcheck/internal/api"
	"playlistcheck/internal/config"
	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/pipeline"
	"playlistcheck/internal/storage/sqlite"
	"playlistcheck/internal/version"
)

func newServeCommand(opts *options, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recorded run history over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, stdout)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.historyDB, "history-db", "", "SQLite database written by --history-db scans (required)")
	f.StringVar(&opts.addr, "addr", config.DefaultServeAddr, "Listen address")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if cfg.HistoryDB == "" {
		return errors.New("serve requires --history-db")
	}
	logger := xlog.WithComponent("serve")

	store, err := sqlite.New(ctx, cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to initialize sqlite storage: %w", err)
	}
	defer store.Close()

	server := api.NewServer(cfg.Serve.Addr, store, api.BadgeOptions{
		Label:  cfg.Badge.Label,
		Colors: pipeline.BadgeColors(cfg),
	})
	errCh, err := server.Start()
	if err != nil {
		return fmt.Errorf("could not start HTTP server: %w", err)
	}
	logger.Info().Str("version", version.Version).Msg("history API is running")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Serve.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	return nil
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "playlistcheck %s (commit %s)\n", version.Version, version.Commit)
		},
	}
}
