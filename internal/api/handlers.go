package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/models"
	"playlistcheck/internal/report"
	"playlistcheck/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BadgeOptions controls the badge served for the latest run.
type BadgeOptions struct {
	Label  string
	Colors report.Colors
}

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	store  storage.HistoryStore
	badge  BadgeOptions
	logger zerolog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(store storage.HistoryStore, badge BadgeOptions) *Handlers {
	return &Handlers{store: store, badge: badge, logger: xlog.WithComponent("api")}
}

// ListRuns handles listing recorded runs, newest first, with cursor pagination.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultPageSize
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= maxPageSize {
			limit = v
		}
	}

	var params storage.ListRunsParams
	if token := q.Get("page_token"); token != "" {
		before, id, ok := decodeCursor(token)
		if !ok {
			http.Error(w, "invalid page_token", http.StatusBadRequest)
			return
		}
		params.BeforeTime, params.BeforeID = before, id
	}
	params.Limit = limit

	items, err := h.store.ListRuns(r.Context(), params)
	if err != nil {
		h.logger.Error().Err(err).Msg("list runs failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.RunRecord{}
	}

	resp := struct {
		Items         []models.RunRecord `json:"items"`
		NextPageToken string             `json:"next_page_token"`
	}{
		Items: items,
	}
	if len(items) == limit {
		last := items[len(items)-1]
		resp.NextPageToken = encodeCursor(last.RunAt, last.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun handles fetching one run with its failure list.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListResults handles listing the per-URL results of a run.
func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	results, err := h.store.ListResults(r.Context(), rec.ID)
	if err != nil {
		h.logger.Error().Err(err).Str(xlog.FieldRunID, rec.ID).Msg("list results failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	resp := struct {
		Items []models.ProbeResult `json:"items"`
	}{Items: results}
	writeJSON(w, http.StatusOK, resp)
}

// Badge serves the shields.io endpoint payload of the latest run.
func (h *Handlers) Badge(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.LatestRun(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "no runs recorded", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("latest run lookup failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, report.NewBadge(rec.Summary, h.badge.Label, h.badge.Colors))
}

// Healthz is a simple health check endpoint.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) lookupRun(w http.ResponseWriter, r *http.Request) (*models.RunRecord, bool) {
	runID := chi.URLParam(r, "run_id")
	rec, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Str(xlog.FieldRunID, runID).Msg("get run failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

// The page token is base64 of "<rfc3339nano>|<id>".
func encodeCursor(runAt time.Time, id string) string {
	return base64.URLEncoding.EncodeToString([]byte(runAt.UTC().Format(time.RFC3339Nano) + "|" + id))
}

func decodeCursor(token string) (time.Time, string, bool) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", false
	}
	ts, id, found := strings.Cut(string(decoded), "|")
	if !found || id == "" {
		return time.Time{}, "", false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", false
	}
	return t, id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
