package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks the override variables so host environments cannot leak
// into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HOST", "PORT", "ALLOWED_ORIGINS", "TEMP_DIR", "MAX_FILE_SIZE", "LOG_LEVEL", "EXIFTOOL_PATH"} {
		t.Setenv(key, "")
	}
	t.Setenv("EXIF_INSPECTOR_CONFIG", filepath.Join(t.TempDir(), "absent.json"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Uploads.MaxFileSizeMB != 50 {
		t.Errorf("max file size = %v", cfg.Uploads.MaxFileSizeMB)
	}
	if cfg.MaxFileSizeBytes() != 50*1024*1024 {
		t.Errorf("max bytes = %d", cfg.MaxFileSizeBytes())
	}
	if cfg.ExifTool.Binary != "exiftool" {
		t.Errorf("binary = %q", cfg.ExifTool.Binary)
	}
	if cfg.ExifToolTimeout() != 30*time.Second {
		t.Errorf("timeout = %s", cfg.ExifToolTimeout())
	}
	if cfg.SpoolMaxAge() != time.Hour {
		t.Errorf("spool max age = %s", cfg.SpoolMaxAge())
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
        "server": {"host": "127.0.0.1", "port": 9001},
        "uploads": {"max_file_size_mb": 10},
        "exiftool": {"binary": "/opt/bin/exiftool", "timeout_seconds": 5}
    }`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXIF_INSPECTOR_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9001" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if cfg.Uploads.MaxFileSizeMB != 10 {
		t.Errorf("max file size = %v", cfg.Uploads.MaxFileSizeMB)
	}
	if cfg.ExifToolTimeout() != 5*time.Second {
		t.Errorf("timeout = %s", cfg.ExifToolTimeout())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"port": 9001}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXIF_INSPECTOR_CONFIG", path)
	t.Setenv("PORT", "7777")
	t.Setenv("MAX_FILE_SIZE", "2.5")
	t.Setenv("EXIFTOOL_PATH", "/usr/local/bin/exiftool")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.MaxFileSizeBytes() != int64(2.5*1024*1024) {
		t.Errorf("max bytes = %d", cfg.MaxFileSizeBytes())
	}
	if cfg.ExifTool.Binary != "/usr/local/bin/exiftool" {
		t.Errorf("binary = %q", cfg.ExifTool.Binary)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for a malformed PORT")
	}
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := expandUser("~/x/y.json")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "x/y.json") {
		t.Errorf("expanded = %q", got)
	}

	got, err = expandUser("/abs/path.json")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != "/abs/path.json" {
		t.Errorf("absolute path must pass through, got %q", got)
	}
}
