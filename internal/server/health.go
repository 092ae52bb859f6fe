package server

import (
	"net/http"

	"github.com/chrismannina/exif-inspector/internal/storage"
)

type healthConfig struct {
	MaxFileSize float64 `json:"max_file_size"` // MB
	Version     string  `json:"version"`
	ExifTool    string  `json:"exiftool,omitempty"`
}

type healthResponse struct {
	Status string       `json:"status"` // "ok" or "degraded"
	Config healthConfig `json:"config"`
}

// handleHealth reports service health and the configuration clients need for
// pre-validation. Degraded means exiftool is not usable on this host.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Config: healthConfig{
			MaxFileSize: s.cfg.Uploads.MaxFileSizeMB,
			Version:     Version,
		},
	}

	status := s.tool.Check()
	if status.Available {
		resp.Config.ExifTool = status.Version
	} else {
		s.log.Warn("exiftool unavailable", "error", status.Error)
		resp.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRoot is the liveness marker.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "exif-inspector is running"})
}

type historyResponse struct {
	Extractions []storage.ExtractionRecord `json:"extractions"`
	Count       int                        `json:"count"`
}

// handleHistory returns recent extraction log entries.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Kind:    "unavailable",
			Message: "extraction history is disabled",
		})
		return
	}

	recs, err := s.store.RecentExtractions(100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Extractions: recs, Count: len(recs)})
}
