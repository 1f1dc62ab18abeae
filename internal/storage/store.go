package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"playlistcheck/internal/models"
)

var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("not found")
)

// ListRunsParams contains parameters for listing runs with cursor pagination,
// newest first.
type ListRunsParams struct {
	BeforeTime time.Time
	BeforeID   string
	Limit      int
}

// HistoryStore defines the storage operations on recorded runs.
type HistoryStore interface {
	SaveRun(ctx context.Context, rep *models.Report) (*models.RunRecord, error)
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	LatestRun(ctx context.Context) (*models.RunRecord, error)
	ListRuns(ctx context.Context, params ListRunsParams) ([]models.RunRecord, error)
	ListResults(ctx context.Context, runID string) ([]models.ProbeResult, error)
}

// UniqueResults flattens the per-file results of rep into one entry per URL,
// in URL order.
func UniqueResults(rep *models.Report) []models.ProbeResult {
	seen := make(map[string]struct{})
	var out []models.ProbeResult
	for _, f := range rep.Results {
		for _, r := range f.URLs {
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
