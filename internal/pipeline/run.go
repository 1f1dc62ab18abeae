// Package pipeline runs one scan: discover, probe sequentially, aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"playlistcheck/internal/checker"
	"playlistcheck/internal/config"
	"playlistcheck/internal/discovery"
	"playlistcheck/internal/gitrev"
	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/metrics"
	"playlistcheck/internal/models"
	"playlistcheck/internal/report"
	"playlistcheck/internal/urlutil"
	"playlistcheck/internal/version"
)

// Prober checks a single URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string) models.ProbeResult
}

// Deps are the collaborators of a run. Zero values are replaced with the
// production implementations.
type Deps struct {
	Prober  Prober
	Metrics *metrics.Recorder
	GitRev  func(ctx context.Context, dir string) *string
	Now     func() time.Time
}

// Run scans cfg.PlaylistDir and probes every unique URL once, in sorted
// order, pausing cfg.Delay between probes. A missing directory is returned
// as an error unless cfg.Lenient is set, in which case it is embedded in the
// report.
//
// Cancelling ctx stops the loop; the returned report then covers the URLs
// probed so far. A probe cut short by the cancellation is discarded.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*models.Report, error) {
	logger := xlog.WithComponent("pipeline")
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GitRev == nil {
		deps.GitRev = gitrev.Lookup
	}

	start := deps.Now()
	rep := &models.Report{
		RunAt:       start.UTC(),
		PlaylistDir: cfg.PlaylistDir,
		Results:     []models.FileScan{},
	}

	ex, err := discovery.NewExtractor(cfg.ExcludeChars)
	if err != nil {
		return nil, err
	}
	scan, err := discovery.Scan(cfg.PlaylistDir, ex)
	if err != nil {
		if cfg.Lenient && errors.Is(err, discovery.ErrDirectoryNotFound) {
			logger.Warn().Err(err).Str(xlog.FieldPlaylistDir, cfg.PlaylistDir).Msg("playlist directory missing, writing error report")
			msg := err.Error()
			rep.Error = &msg
			var tally report.Tally
			rep.Summary = tally.Summary(deps.Now().Sub(start))
			observeRun(deps.Metrics, rep)
			return rep, nil
		}
		return nil, err
	}
	for _, file := range scan.Files {
		if file.FileError != nil {
			logger.Warn().Str(xlog.FieldPlaylistFile, file.PlaylistFile).Str("file_error", *file.FileError).Msg("file could not be read")
		}
	}
	logger.Info().
		Str(xlog.FieldPlaylistDir, cfg.PlaylistDir).
		Str("pattern", ex.Pattern()).
		Int(xlog.FieldFiles, len(scan.Files)).
		Int(xlog.FieldURLs, len(scan.URLs)).
		Msg("scan complete")

	prober := deps.Prober
	if prober == nil {
		ua := cfg.UserAgent
		if ua == "" {
			ua = version.UserAgent()
		}
		p := checker.New(checker.Options{
			Timeout:      cfg.Timeout,
			UserAgent:    ua,
			MaxRedirects: cfg.MaxRedirects,
			InsecureTLS:  cfg.InsecureTLS,
		})
		defer p.Close()
		prober = p
	}

	results, tally := probeAll(ctx, logger, prober, scan.URLs, cfg.Delay, deps.Metrics)

	for _, file := range scan.Files {
		file.URLs = make([]models.ProbeResult, 0, len(file.Extracted))
		for _, u := range file.Extracted {
			if r, ok := results[u]; ok {
				file.URLs = append(file.URLs, r)
			}
		}
		rep.Results = append(rep.Results, file)
	}

	rep.GitCommit = deps.GitRev(context.WithoutCancel(ctx), cfg.PlaylistDir)
	rep.Summary = tally.Summary(deps.Now().Sub(start))
	observeRun(deps.Metrics, rep)

	logger.Info().
		Int("working", rep.Summary.Working).
		Int("failing", rep.Summary.Failing).
		Float64("success_rate", rep.Summary.SuccessRate).
		Float64("duration_seconds", rep.Summary.DurationSeconds).
		Msg("run complete")
	return rep, nil
}

func probeAll(ctx context.Context, logger zerolog.Logger, prober Prober, urls []string, delay time.Duration, rec *metrics.Recorder) (map[string]models.ProbeResult, *report.Tally) {
	results := make(map[string]models.ProbeResult, len(urls))
	tally := &report.Tally{}
	for i, u := range urls {
		wait := delay
		if i == 0 {
			wait = 0
		}
		if !sleep(ctx, wait) {
			logInterrupted(logger, i, len(urls))
			break
		}
		r := prober.Probe(ctx, u)
		if ctx.Err() != nil {
			logInterrupted(logger, i, len(urls))
			break
		}
		results[u] = r
		tally.Add(r)
		if rec != nil {
			rec.ObserveProbe(r)
		}

		ev := logger.Info()
		if !r.OK {
			ev = logger.Warn()
		}
		ev.Str(xlog.FieldProgress, fmt.Sprintf("%d/%d", i+1, len(urls))).
			Str(xlog.FieldURL, u).
			Str(xlog.FieldHost, urlutil.Hostname(u)).
			Bool(xlog.FieldOK, r.OK).
			Str(xlog.FieldReason, r.Reason).
			Str(xlog.FieldMethod, r.TestedWith).
			Int64(xlog.FieldElapsedMS, r.ElapsedMS).
			Msg("probed")
	}
	return results, tally
}

func logInterrupted(logger zerolog.Logger, probed, total int) {
	logger.Warn().Int(xlog.FieldProgress, probed).Int(xlog.FieldURLs, total).Msg("run interrupted, reporting partial results")
}

// sleep waits for d and reports whether ctx is still live afterwards.
func sleep(ctx context.Context, d time.Duration) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func observeRun(rec *metrics.Recorder, rep *models.Report) {
	if rec != nil {
		rec.ObserveRun(rep.RunAt, rep.Summary)
	}
}
