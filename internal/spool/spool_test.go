package spool_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrismannina/exif-inspector/internal/spool"
)

func open(t *testing.T) *spool.Spool {
	t.Helper()
	s, err := spool.Open(t.TempDir(), time.Hour, nil)
	if err != nil {
		t.Fatalf("open spool: %v", err)
	}
	return s
}

func TestSaveAndRemove(t *testing.T) {
	s := open(t)

	entry, err := s.Save(strings.NewReader("image bytes"), ".jpg", 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if entry.Size != int64(len("image bytes")) {
		t.Errorf("size = %d", entry.Size)
	}
	if filepath.Dir(entry.Path) != s.Dir() {
		t.Errorf("entry outside spool dir: %s", entry.Path)
	}
	if !strings.HasSuffix(entry.Path, ".jpg") {
		t.Errorf("expected extension to be preserved: %s", entry.Path)
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("content = %q", data)
	}

	if err := entry.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(entry.Path); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove")
	}
	// Double remove is not an error.
	if err := entry.Remove(); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestSaveRejectsOversizeContent(t *testing.T) {
	s := open(t)

	_, err := s.Save(strings.NewReader(strings.Repeat("x", 100)), ".jpg", 50)
	var tle *spool.TooLargeError
	if !errors.As(err, &tle) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d files behind", len(entries))
	}
}

func TestSaveIgnoresHostileExtension(t *testing.T) {
	s := open(t)

	entry, err := s.Save(strings.NewReader("x"), ".jpg/../../etc", 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	defer entry.Remove()

	if filepath.Dir(entry.Path) != s.Dir() {
		t.Fatalf("hostile extension escaped the spool dir: %s", entry.Path)
	}
}

func TestWatchSweepsOnStartup(t *testing.T) {
	s := open(t)

	orphan, err := s.Save(strings.NewReader("orphan"), ".jpg", 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(orphan.Path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// The startup sweep runs before the first tick; poll briefly for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(orphan.Path); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("orphan from a previous run was not swept at startup")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestSweepRemovesOnlyExpiredFiles(t *testing.T) {
	s := open(t)

	old, err := s.Save(strings.NewReader("old"), ".jpg", 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	fresh, err := s.Save(strings.NewReader("fresh"), ".jpg", 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old.Path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := s.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Errorf("expired file survived the sweep")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Errorf("fresh file was swept: %v", err)
	}
}
