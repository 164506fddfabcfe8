package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/common/http/middleware"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
)

type ProgressSource interface {
	Progress() strategy.Progress
}

type Server struct {
	l        zerolog.Logger
	addr     string
	srv      *http.Server
	progress ProgressSource
}

func NewServer(addr string, progress ProgressSource) *Server {
	s := &Server{
		addr:     addr,
		progress: progress,
		l: log.With().
			Str("domain", "server").
			Str("type", "http").
			Logger(),
	}
	s.srv = &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(s.l))
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	asJSON := middleware.ApplicationJsonContentTypeMiddleware()
	r.Handle("/api/status", asJSON(http.HandlerFunc(s.handleStatus))).Methods(http.MethodGet)
	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	s.l.Info().Msgf("worker is running on address: %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.l.Error().Err(err).Msgf("worker server failed")
		return errors.Wrap(err, "worker server failed")
	}
	s.l.Debug().Msgf("worker server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.l.Warn().Msgf("failed to write health response: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if err := json.NewEncoder(w).Encode(s.progress.Progress()); err != nil {
		s.l.Warn().Err(err).Msg("failed to write status response")
	}
}
