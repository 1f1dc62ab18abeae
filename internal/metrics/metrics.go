// Package metrics records run and probe metrics in a private Prometheus
// registry and writes them as a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"playlistcheck/internal/models"
)

const namespace = "playlistcheck"

// Recorder holds the collectors for one run.
type Recorder struct {
	registry *prometheus.Registry

	urls          *prometheus.GaugeVec
	successRate   prometheus.Gauge
	duration      prometheus.Gauge
	lastRun       prometheus.Gauge
	probeResults  *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		urls: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "urls",
			Help:      "Number of unique URLs probed in the last run, by state.",
		}, []string{"state"}),
		successRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "success_rate_percent",
			Help:      "Share of working URLs in the last run.",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run started.",
		}),
		probeResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_results_total",
			Help:      "Probe outcomes by reason class.",
		}, []string{"outcome"}),
		probeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of the attempt that decided each probe.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
	}
}

// ObserveProbe records one probe result.
func (r *Recorder) ObserveProbe(res models.ProbeResult) {
	r.probeResults.WithLabelValues(outcome(res)).Inc()
	method := res.TestedWith
	if method == "" {
		method = "none"
	}
	r.probeDuration.WithLabelValues(method).Observe(float64(res.ElapsedMS) / 1000)
}

// ObserveRun records the run summary.
func (r *Recorder) ObserveRun(runAt time.Time, s models.Summary) {
	r.urls.WithLabelValues("total").Set(float64(s.TotalURLs))
	r.urls.WithLabelValues("working").Set(float64(s.Working))
	r.urls.WithLabelValues("failing").Set(float64(s.Failing))
	r.successRate.Set(s.SuccessRate)
	r.duration.Set(s.DurationSeconds)
	r.lastRun.Set(float64(runAt.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// outcome collapses a reason into a low-cardinality label value.
func outcome(res models.ProbeResult) string {
	if res.OK {
		return "ok"
	}
	if res.StatusCode != nil {
		return "http_error"
	}
	switch reasonClass(res.Reason) {
	case "Timeout":
		return "timeout"
	case "ConnectionError":
		return "connection_error"
	case "RequestError":
		return "request_error"
	default:
		return "unexpected_error"
	}
}

func reasonClass(reason string) string {
	for i, c := range reason {
		if c == ':' {
			return reason[:i]
		}
	}
	return reason
}
