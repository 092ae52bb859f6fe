package server

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/chrismannina/exif-inspector/internal/exif"
	"github.com/chrismannina/exif-inspector/internal/spool"
	"github.com/chrismannina/exif-inspector/internal/storage"

	"github.com/google/uuid"
)

// multipartMaxMemory caps how much of a parsed form stays in memory before
// spilling to disk.
const multipartMaxMemory = 32 << 20

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".raf":  {},
	".tif":  {},
	".tiff": {},
}

// Recipe data only exists in Fujifilm JPEGs and RAFs.
var fujiExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".raf":  {},
}

// upload is one accepted file: the client-declared name plus its spool copy.
type upload struct {
	name  string
	entry *spool.Entry
}

type analyzeResponse struct {
	Filename string      `json:"filename"`
	Metadata exif.Record `json:"metadata"`
}

type renameResponse struct {
	Filename string `json:"filename"`
}

type batchEntry struct {
	Filename string      `json:"filename"`
	Status   string      `json:"status"` // "ok" or "error"
	Metadata exif.Record `json:"metadata,omitempty"`
	Error    *errorBody  `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchEntry `json:"results"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := s.acceptUpload(r, "file", imageExts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer up.entry.Remove()

	record, err := s.extract(r.Context(), "analyze", up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Filename: up.name, Metadata: record})
}

func (s *Server) handleFuji(w http.ResponseWriter, r *http.Request) {
	up, err := s.acceptUpload(r, "file", fujiExts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer up.entry.Remove()

	record, err := s.extract(r.Context(), "fuji", up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := exif.FujiRecipe(record, up.name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	up, err := s.acceptUpload(r, "file", imageExts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer up.entry.Remove()

	record, err := s.extract(r.Context(), "rename", up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	proposed, err := exif.ProposeFilename(record, r.FormValue("format"), up.name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renameResponse{Filename: proposed})
}

// handleBatch processes each uploaded file independently and in order. One
// file's failure never aborts its siblings; the outer status is 200 unless
// the request itself is malformed.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		s.writeError(w, r, &validationError{msg: "request is not a valid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, r, &validationError{msg: "no files provided; upload one or more parts named \"files\""})
		return
	}

	results := make([]batchEntry, 0, len(headers))
	for _, header := range headers {
		results = append(results, s.processBatchFile(r.Context(), header))
	}

	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) processBatchFile(ctx context.Context, header *multipart.FileHeader) batchEntry {
	entry := batchEntry{Filename: header.Filename, Status: "error"}

	failWith := func(err error) batchEntry {
		_, body := errorFor(err)
		entry.Error = &body
		return entry
	}

	file, err := header.Open()
	if err != nil {
		return failWith(&validationError{msg: "file part could not be read"})
	}
	defer file.Close()

	up, err := s.spoolPart(file, header, imageExts)
	if err != nil {
		return failWith(err)
	}
	defer up.entry.Remove()

	record, err := s.extract(ctx, "batch", up)
	if err != nil {
		return failWith(err)
	}

	entry.Status = "ok"
	entry.Metadata = record
	return entry
}

// acceptUpload parses the form and spools the named file part.
func (s *Server) acceptUpload(r *http.Request, field string, allowed map[string]struct{}) (*upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, &validationError{msg: fmt.Sprintf("no file part; upload a part named %q", field)}
	}
	defer file.Close()

	return s.spoolPart(file, header, allowed)
}

// spoolPart validates a file part and copies it into the spool. Validation
// happens before any bytes are copied and before any subprocess runs.
func (s *Server) spoolPart(file multipart.File, header *multipart.FileHeader, allowed map[string]struct{}) (*upload, error) {
	maxSize := s.cfg.MaxFileSizeBytes()
	if err := validateHeader(header, allowed, maxSize); err != nil {
		return nil, err
	}

	entry, err := s.spool.Save(file, filepath.Ext(header.Filename), maxSize)
	if err != nil {
		return nil, err
	}

	return &upload{name: header.Filename, entry: entry}, nil
}

func validateHeader(header *multipart.FileHeader, allowed map[string]struct{}, maxSize int64) error {
	if header.Filename == "" {
		return &validationError{msg: "uploaded file has no filename"}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowed[ext]; !ok {
		return &validationError{msg: fmt.Sprintf("unsupported file format %q", ext)}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" &&
		!strings.HasPrefix(contentType, "image/") &&
		contentType != "application/octet-stream" {
		return &validationError{msg: fmt.Sprintf("declared content type %q is not an image type", contentType)}
	}

	if header.Size > maxSize {
		return &spool.TooLargeError{Limit: maxSize}
	}

	return nil
}

// extract runs the external tool on the spooled file, records the outcome in
// the history store, and normalizes the record for the response.
func (s *Server) extract(ctx context.Context, endpoint string, up *upload) (exif.Record, error) {
	start := time.Now()
	record, err := s.tool.Extract(ctx, up.entry.Path)

	hist := storage.ExtractionRecord{
		ID:         uuid.NewString(),
		Endpoint:   endpoint,
		Filename:   up.name,
		Status:     "ok",
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		hist.Status = "error"
		hist.Error = err.Error()
	}
	if herr := s.store.RecordExtraction(hist); herr != nil {
		s.log.Warn("failed to record extraction history", "error", herr)
	}

	if err != nil {
		return nil, err
	}
	return exif.Normalize(record, up.name), nil
}
