package models

import "time"

// Probe methods recorded in ProbeResult.TestedWith.
const (
	MethodHEAD = "HEAD"
	MethodGET  = "GET"
)

// ProbeResult stores the outcome of a liveness probe for a single URL.
type ProbeResult struct {
	URL           string  `json:"url"`
	OK            bool    `json:"ok"`
	StatusCode    *int    `json:"status_code"` // Pointer to allow for null on transport errors
	Reason        string  `json:"reason"`
	ElapsedMS     int64   `json:"elapsed_ms"`
	ContentLength *int64  `json:"content_length"`
	Error         *string `json:"error"` // Pointer to allow for null on success
	TestedWith    string  `json:"tested_with"`
	FinalURL      string  `json:"final_url"`
}

// FileScan associates a playlist file with the URLs extracted from it.
type FileScan struct {
	PlaylistFile string        `json:"playlist_file"`
	ScannedAt    time.Time     `json:"scanned_at"`
	FileError    *string       `json:"file_error"`
	URLs         []ProbeResult `json:"urls"`

	Extracted []string `json:"-"` // Internal field, filled by discovery before probing
}

// Failure is a failing URL together with its reason, in probe order.
type Failure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Summary holds the aggregate counters of a run.
type Summary struct {
	TotalURLs       int       `json:"total_urls"`
	Working         int       `json:"working"`
	Failing         int       `json:"failing"`
	SuccessRate     float64   `json:"success_rate"`
	DurationSeconds float64   `json:"duration_seconds"`
	Failures        []Failure `json:"failures"`
}

// Report is the top-level aggregate written at the end of a run.
type Report struct {
	RunAt       time.Time  `json:"run_at"`
	PlaylistDir string     `json:"playlist_dir"`
	GitCommit   *string    `json:"git_commit"`
	Error       *string    `json:"error,omitempty"`
	Summary     Summary    `json:"summary"`
	Results     []FileScan `json:"results"`
}

// Badge is a shields.io endpoint payload derived from a Report.
type Badge struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

// RunRecord is the persisted projection of a Report in the run history.
type RunRecord struct {
	ID          string    `json:"id"`
	RunAt       time.Time `json:"run_at"`
	PlaylistDir string    `json:"playlist_dir"`
	GitCommit   *string   `json:"git_commit"`
	Error       *string   `json:"error"`
	Summary     Summary   `json:"summary"`
}
