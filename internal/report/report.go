// Package report aggregates probe results and renders the JSON report, the
// plain-text summary and the README badge.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"playlistcheck/internal/models"
)

// Badge color thresholds on the success rate, in percent.
const (
	SuccessThreshold = 90.0
	WarningThreshold = 70.0
)

// Colors names the badge color of each tier.
type Colors struct {
	Success  string
	Warning  string
	Critical string
}

// DefaultColors are shields.io color names.
var DefaultColors = Colors{Success: "success", Warning: "yellow", Critical: "critical"}

// SuccessRate returns working/total*100, or 0 when total is 0.
func SuccessRate(working, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(working) * 100 / float64(total)
}

// Tally accumulates probe outcomes in probe order.
type Tally struct {
	working  int
	failing  int
	failures []models.Failure
}

// Add records one probe result.
func (t *Tally) Add(r models.ProbeResult) {
	if r.OK {
		t.working++
		return
	}
	t.failing++
	t.failures = append(t.failures, models.Failure{URL: r.URL, Reason: r.Reason})
}

// Summary returns the counters for a run that took duration.
func (t *Tally) Summary(duration time.Duration) models.Summary {
	total := t.working + t.failing
	failures := t.failures
	if failures == nil {
		failures = []models.Failure{}
	}
	return models.Summary{
		TotalURLs:       total,
		Working:         t.working,
		Failing:         t.failing,
		SuccessRate:     round2(SuccessRate(t.working, total)),
		DurationSeconds: round2(duration.Seconds()),
		Failures:        failures,
	}
}

// NewBadge derives the badge payload from a summary.
func NewBadge(s models.Summary, label string, colors Colors) models.Badge {
	rate := SuccessRate(s.Working, s.TotalURLs)
	color := colors.Critical
	switch {
	case rate >= SuccessThreshold:
		color = colors.Success
	case rate >= WarningThreshold:
		color = colors.Warning
	}
	return models.Badge{
		SchemaVersion: 1,
		Label:         label,
		Message:       fmt.Sprintf("%d/%d working", s.Working, s.TotalURLs),
		Color:         color,
	}
}

// EncodeJSON writes v as indented JSON followed by a newline.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
