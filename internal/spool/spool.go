// Package spool manages the per-request temp-file lifecycle for uploads:
// uniquely named files in one directory, size-limited writes, and a janitor
// that removes anything a crashed or leaked request left behind.
package spool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Spool owns a directory of transient upload files. Files are named from
// generated UUIDs, never from client input, so concurrent requests cannot
// collide and path traversal is not possible.
type Spool struct {
	dir    string
	maxAge time.Duration
	log    *slog.Logger
}

// Open ensures dir exists and returns a Spool over it. maxAge is the orphan
// TTL used by Watch and Sweep.
func Open(dir string, maxAge time.Duration, log *slog.Logger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Spool{dir: dir, maxAge: maxAge, log: log}, nil
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string {
	return s.dir
}

// TooLargeError reports an upload rejected for exceeding the size limit.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file exceeds the maximum allowed size of %s", humanize.IBytes(uint64(e.Limit)))
}

// Entry is one spooled file. Callers must Remove it on every exit path.
type Entry struct {
	Path string
	Size int64
}

// Remove deletes the spooled file. Removing an already-removed entry is not
// an error.
func (e *Entry) Remove() error {
	err := os.Remove(e.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Save copies r into a new uniquely named spool file, rejecting content
// larger than limit bytes. The partial file is removed on any failure.
func (s *Spool) Save(r io.Reader, ext string, limit int64) (*Entry, error) {
	name := uuid.NewString() + sanitizeExt(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}
	if n > limit {
		os.Remove(path)
		return nil, &TooLargeError{Limit: limit}
	}

	return &Entry{Path: path, Size: n}, nil
}

// Sweep removes spool files older than olderThan and returns how many were
// deleted.
func (s *Spool) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Watch runs the spool janitor until ctx is done. Files are tracked from
// their fsnotify Create events and removed once they outlive the TTL without
// the owning request deleting them; a periodic full sweep catches files that
// predate the watcher. Requests clean up after themselves; the janitor only
// catches leftovers from crashed processes or killed requests.
func (s *Spool) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}
	s.log.Info("spool janitor started", "dir", s.dir, "max_age", s.maxAge)

	// Clear anything a previous process left behind before waiting on the
	// first tick.
	if removed, err := s.Sweep(s.maxAge); err != nil {
		s.log.Warn("startup spool sweep failed", "error", err)
	} else if removed > 0 {
		s.log.Info("removed spool files from a previous run", "count", removed)
	}

	// Observation time of every live spool file seen via Create. Removal
	// keys off when the janitor saw the file appear, so a leaked file is
	// collected on schedule even if something touches its mtime.
	tracked := make(map[string]time.Time)

	interval := s.maxAge / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Op.Has(fsnotify.Create):
				tracked[event.Name] = time.Now()
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				delete(tracked, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("spool watcher error", "error", err)
		case <-ticker.C:
			if removed := s.removeTracked(tracked, time.Now().Add(-s.maxAge)); removed > 0 {
				s.log.Info("removed leaked spool files", "count", removed)
			}
			removed, err := s.Sweep(s.maxAge)
			if err != nil {
				s.log.Warn("spool sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.log.Info("swept orphaned spool files", "count", removed)
			}
		}
	}
}

// removeTracked deletes every tracked file observed before cutoff and prunes
// it from the map. Files already gone are pruned without error.
func (s *Spool) removeTracked(tracked map[string]time.Time, cutoff time.Time) int {
	removed := 0
	for path, seen := range tracked {
		if seen.After(cutoff) {
			continue
		}
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
			delete(tracked, path)
		case os.IsNotExist(err):
			delete(tracked, path)
		default:
			s.log.Warn("failed to remove leaked spool file", "path", path, "error", err)
		}
	}
	return removed
}

// sanitizeExt keeps only a plain lowercase extension so client input cannot
// influence the spool path.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" || ext[0] != '.' {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
