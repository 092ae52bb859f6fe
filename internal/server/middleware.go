package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// batchSizeFactor bounds a whole multipart request body relative to the
// single-file limit, leaving room for batch uploads plus form overhead.
const batchSizeFactor = 16

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origins := s.cfg.Server.AllowedOrigins
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			for _, o := range origins {
				if strings.EqualFold(o, origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					break
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// uploadSizeMiddleware rejects multipart requests whose declared length
// exceeds the upload budget before any part is read. Chunked requests carry
// no declared length and pass through to the per-file limit.
func (s *Server) uploadSizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			maxRequest := s.cfg.MaxFileSizeBytes() * batchSizeFactor
			if r.ContentLength > maxRequest {
				writeJSON(w, http.StatusBadRequest, errorBody{
					Kind:    "validation",
					Message: fmt.Sprintf("request body exceeds the maximum allowed size of %s", humanize.IBytes(uint64(maxRequest))),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
