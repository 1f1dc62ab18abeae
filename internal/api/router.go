package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/storage"
)

// NewRouter creates a chi router and registers the read-only history API.
func NewRouter(store storage.HistoryStore, badge BadgeOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	h := NewHandlers(store, badge)
	r.Get("/v1/runs", h.ListRuns)
	r.Get("/v1/runs/{run_id}", h.GetRun)
	r.Get("/v1/runs/{run_id}/results", h.ListResults)
	r.Get("/v1/badge", h.Badge)
	r.Get("/healthz", h.Healthz)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	logger := xlog.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str(xlog.FieldMethod, r.Method).
			Str(xlog.FieldPath, r.URL.Path).
			Int(xlog.FieldStatusCode, ww.Status()).
			Int64(xlog.FieldElapsedMS, time.Since(start).Milliseconds()).
			Msg("request handled")
	})
}
