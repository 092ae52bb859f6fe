package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chrismannina/exif-inspector/internal/exif"
	"github.com/chrismannina/exif-inspector/internal/exiftool"
	"github.com/chrismannina/exif-inspector/internal/spool"
)

// errorBody is the wire shape for every error: a machine-readable kind and a
// human-readable message.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// validationError covers bad, missing, or malformed upload input.
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

// errorFor maps an error from the pipeline to its HTTP status and wire body.
// Unknown errors become an opaque 500; internals never leak.
func errorFor(err error) (int, errorBody) {
	var ve *validationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorBody{Kind: "validation", Message: ve.msg}
	}

	var tle *spool.TooLargeError
	if errors.As(err, &tle) {
		return http.StatusBadRequest, errorBody{Kind: "validation", Message: tle.Error()}
	}

	var ufe *exif.UnsupportedFormatError
	if errors.As(err, &ufe) {
		return http.StatusUnprocessableEntity, errorBody{Kind: "unsupported_format", Message: ufe.Error()}
	}

	var upe *exif.UnresolvedPlaceholderError
	if errors.As(err, &upe) {
		return http.StatusUnprocessableEntity, errorBody{Kind: "unresolved_placeholder", Message: upe.Error()}
	}

	var ee *exiftool.ExtractionError
	if errors.As(err, &ee) {
		return http.StatusBadGateway, errorBody{Kind: "extraction", Message: ee.Reason}
	}

	return http.StatusInternalServerError, errorBody{Kind: "internal", Message: "an unexpected error occurred"}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.log.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "kind", body.Kind, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
