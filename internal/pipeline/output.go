package pipeline

import (
	"context"
	"fmt"

	"playlistcheck/internal/config"
	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/metrics"
	"playlistcheck/internal/models"
	"playlistcheck/internal/report"
	"playlistcheck/internal/storage/sqlite"
)

// BadgeColors maps the configured badge colors onto report.Colors.
func BadgeColors(cfg config.Config) report.Colors {
	return report.Colors{
		Success:  cfg.Badge.SuccessColor,
		Warning:  cfg.Badge.WarningColor,
		Critical: cfg.Badge.CriticalColor,
	}
}

// WriteOutputs writes every artifact configured in cfg: the main report in
// cfg.Format, the optional text summary, badge and metrics textfile, and the
// history record.
func WriteOutputs(ctx context.Context, cfg config.Config, rep *models.Report, rec *metrics.Recorder) error {
	logger := xlog.WithComponent("output")

	var err error
	switch cfg.Format {
	case config.FormatText:
		err = report.WriteTextFile(cfg.Output, rep)
	default:
		err = report.WriteJSONFile(cfg.Output, rep)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info().Str(xlog.FieldPath, cfg.Output).Str("format", cfg.Format).Msg("report written")

	if cfg.TextOutput != "" {
		if err := report.WriteTextFile(cfg.TextOutput, rep); err != nil {
			return fmt.Errorf("failed to write text summary: %w", err)
		}
		logger.Info().Str(xlog.FieldPath, cfg.TextOutput).Msg("text summary written")
	}

	if cfg.BadgeOutput != "" {
		badge := report.NewBadge(rep.Summary, cfg.Badge.Label, BadgeColors(cfg))
		if err := report.WriteBadgeFile(cfg.BadgeOutput, badge); err != nil {
			return fmt.Errorf("failed to write badge: %w", err)
		}
		logger.Info().Str(xlog.FieldPath, cfg.BadgeOutput).Str("message", badge.Message).Msg("badge written")
	}

	if cfg.MetricsOutput != "" && rec != nil {
		if err := rec.WriteTextfile(cfg.MetricsOutput); err != nil {
			return err
		}
		logger.Info().Str(xlog.FieldPath, cfg.MetricsOutput).Msg("metrics written")
	}

	if cfg.HistoryDB != "" {
		store, err := sqlite.New(ctx, cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		saved, err := store.SaveRun(ctx, rep)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		logger.Info().Str(xlog.FieldRunID, saved.ID).Str(xlog.FieldPath, cfg.HistoryDB).Msg("run recorded")
	}
	return nil
}
