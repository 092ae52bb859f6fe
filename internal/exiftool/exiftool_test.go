package exiftool_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrismannina/exif-inspector/internal/exiftool"
)

func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exiftool")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

const stubOK = `#!/bin/sh
if [ "$1" = "-ver" ]; then
  echo "12.76"
  exit 0
fi
echo '[{"SourceFile":"x.jpg","Make":"FUJIFILM","Model":"X100V","MIMEType":"image/jpeg"}]'
`

func TestExtract(t *testing.T) {
	tool := exiftool.New(writeStub(t, stubOK), 5*time.Second)

	record, err := tool.Extract(context.Background(), "ignored.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.String("Make") != "FUJIFILM" {
		t.Errorf("Make = %q", record.String("Make"))
	}
	if record.String("Model") != "X100V" {
		t.Errorf("Model = %q", record.String("Model"))
	}
}

func TestExtractNonZeroExit(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "Error: Unknown file type" >&2
exit 1
`)
	tool := exiftool.New(stub, 5*time.Second)

	_, err := tool.Extract(context.Background(), "broken.jpg")
	var ee *exiftool.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if ee.Timeout {
		t.Errorf("exit failure must not be flagged as a timeout")
	}
	if ee.Reason != "Error: Unknown file type" {
		t.Errorf("reason = %q", ee.Reason)
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
echo "this is not json"
`)
	tool := exiftool.New(stub, 5*time.Second)

	_, err := tool.Extract(context.Background(), "odd.jpg")
	var ee *exiftool.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractTimeoutKillsSubprocess(t *testing.T) {
	stub := writeStub(t, `#!/bin/sh
exec sleep 5
`)
	tool := exiftool.New(stub, 200*time.Millisecond)

	start := time.Now()
	_, err := tool.Extract(context.Background(), "slow.jpg")
	elapsed := time.Since(start)

	var ee *exiftool.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !ee.Timeout {
		t.Errorf("expected Timeout flag on deadline expiry")
	}
	if elapsed > 2*time.Second {
		t.Errorf("subprocess was not killed at the deadline (took %s)", elapsed)
	}
}

func TestCheck(t *testing.T) {
	tool := exiftool.New(writeStub(t, stubOK), time.Second)
	status := tool.Check()
	if !status.Available {
		t.Fatalf("expected stub to be available: %v", status.Error)
	}
	if status.Version != "12.76" {
		t.Errorf("version = %q", status.Version)
	}
}

func TestCheckMissingBinary(t *testing.T) {
	tool := exiftool.New(filepath.Join(t.TempDir(), "nope"), time.Second)
	status := tool.Check()
	if status.Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if status.Error == nil {
		t.Errorf("expected an error for a missing binary")
	}
}
