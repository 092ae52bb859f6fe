// Package exiftool wraps the external exiftool binary: availability
// detection and bounded-timeout metadata extraction.
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chrismannina/exif-inspector/internal/exif"
)

// Tool invokes the exiftool binary as a subprocess.
type Tool struct {
	binary  string
	timeout time.Duration
}

// New returns a Tool for the given binary name or path. timeout bounds every
// extraction; the subprocess is killed when it elapses.
func New(binary string, timeout time.Duration) *Tool {
	if binary == "" {
		binary = "exiftool"
	}
	return &Tool{binary: binary, timeout: timeout}
}

// Status reports whether the external binary is usable.
type Status struct {
	Available bool
	Version   string
	Path      string
	Error     error
}

// Check verifies the binary is on PATH and responds to -ver. It is meant for
// startup and health checks, not the per-request path.
func (t *Tool) Check() Status {
	path, err := exec.LookPath(t.binary)
	if err != nil {
		return Status{Available: false, Error: err}
	}

	out, err := exec.Command(t.binary, "-ver").Output()
	if err != nil {
		return Status{Available: false, Path: path, Error: err}
	}

	return Status{
		Available: true,
		Version:   strings.TrimSpace(string(out)),
		Path:      path,
	}
}

// ExtractionError reports a failed subprocess invocation: non-zero exit,
// timeout, or unparseable output.
type ExtractionError struct {
	Reason  string
	Timeout bool
	Err     error
}

func (e *ExtractionError) Error() string {
	return e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extract runs `exiftool -j <path>` and parses the JSON output into a
// Record. The subprocess is killed if it outlives the configured timeout.
func (t *Tool) Extract(ctx context.Context, path string) (exif.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary, "-j", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ExtractionError{
				Reason:  fmt.Sprintf("exiftool timed out after %s", t.timeout),
				Timeout: true,
				Err:     err,
			}
		}
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = "exiftool exited with an error"
		}
		return nil, &ExtractionError{Reason: reason, Err: err}
	}

	// exiftool -j emits a one-element array per input file.
	var records []exif.Record
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, &ExtractionError{Reason: "exiftool produced unparseable output", Err: err}
	}
	if len(records) == 0 {
		return nil, &ExtractionError{Reason: "exiftool produced no metadata"}
	}

	return records[0], nil
}
