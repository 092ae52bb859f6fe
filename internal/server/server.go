// Package server exposes the EXIF inspection API over HTTP: multipart image
// uploads in, parsed metadata JSON out.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/chrismannina/exif-inspector/internal/config"
	"github.com/chrismannina/exif-inspector/internal/exiftool"
	"github.com/chrismannina/exif-inspector/internal/spool"
	"github.com/chrismannina/exif-inspector/internal/storage"

	"github.com/gorilla/mux"
)

// Version is reported by the health endpoint and the version command.
const Version = "1.0.0"

// Server wraps the HTTP server around the extraction pipeline. It holds no
// per-request state; every request is independent beyond its spool file.
type Server struct {
	cfg    *config.Config
	tool   *exiftool.Tool
	spool  *spool.Spool
	store  *storage.Store
	log    *slog.Logger
	router *mux.Router
	server *http.Server
}

// New assembles a Server. store may be nil to run without extraction
// history.
func New(cfg *config.Config, tool *exiftool.Tool, sp *spool.Spool, store *storage.Store, log *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		tool:  tool,
		spool: sp,
		store: store,
		log:   log,
	}

	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, securityHeaders, s.corsMiddleware, s.uploadSizeMiddleware)
	s.setupRoutes(r)
	s.router = r

	return s
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/ui", s.handleUI).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api/v1/exif").Subrouter()
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/fuji", s.handleFuji).Methods("POST")
	api.HandleFunc("/rename", s.handleRename).Methods("POST")
	api.HandleFunc("/batch", s.handleBatch).Methods("POST")
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
}

// ServeHTTP makes the server usable directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins serving and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.router,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "addr", s.cfg.Addr())
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
