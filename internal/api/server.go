package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	xlog "playlistcheck/internal/log"
	"playlistcheck/internal/storage"
)

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates and configures a new API server.
func NewServer(addr string, store storage.HistoryStore, badge BadgeOptions) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(store, badge),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: xlog.WithComponent("api"),
	}
}

// Start binds the listen address and serves in a new goroutine. Serve errors
// other than a clean shutdown are delivered on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str(xlog.FieldAddr, ln.Addr().String()).Msg("starting HTTP server")
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
