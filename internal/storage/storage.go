// Package storage keeps a SQLite log of extraction requests for
// observability. Uploaded image bytes are never persisted; only the
// endpoint, declared filename, outcome, and timing of each extraction.
package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for the extraction history.
// All methods are nil-safe so the service runs unchanged with history
// disabled.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extractions (
            id TEXT PRIMARY KEY,
            endpoint TEXT NOT NULL,
            filename TEXT,
            status TEXT NOT NULL,
            error_message TEXT,
            duration_ms INTEGER,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// ExtractionRecord captures one extraction request's outcome.
type ExtractionRecord struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordExtraction inserts one history row.
func (s *Store) RecordExtraction(rec ExtractionRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT INTO extractions (id, endpoint, filename, status, error_message, duration_ms) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.Endpoint, rec.Filename, rec.Status, rec.Error, rec.DurationMS)
	return err
}

// RecentExtractions returns the latest history rows up to limit.
func (s *Store) RecentExtractions(limit int) ([]ExtractionRecord, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT id, endpoint, filename, status, error_message, duration_ms, created_at FROM extractions ORDER BY created_at DESC, id LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []ExtractionRecord
	for rows.Next() {
		var rec ExtractionRecord
		var errorMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Endpoint, &rec.Filename, &rec.Status, &errorMsg, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if errorMsg.Valid {
			rec.Error = errorMsg.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
