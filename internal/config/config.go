package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultConfigPath     = "~/.config/exif-inspector/config.json"
	defaultPort           = 8000
	defaultMaxFileSizeMB  = 50
	defaultTimeoutSeconds = 30
	defaultSpoolMaxAgeMin = 60
)

// Config holds user-editable settings for the service.
type Config struct {
	Server   Server   `json:"server"`
	Uploads  Uploads  `json:"uploads"`
	ExifTool ExifTool `json:"exiftool"`
	Logging  Logging  `json:"logging"`
	Paths    Paths    `json:"paths"`
}

// Server configures the HTTP listener.
type Server struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// Uploads controls multipart upload acceptance and temp-file spooling.
type Uploads struct {
	MaxFileSizeMB float64 `json:"max_file_size_mb"`
	SpoolDir      string  `json:"spool_dir"`
	MaxAgeMinutes int     `json:"max_age_minutes"` // janitor removes spool files older than this
}

// ExifTool configures the external metadata binary.
type ExifTool struct {
	Binary         string `json:"binary"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Logging controls logging verbosity and output format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Paths configures on-disk locations.
type Paths struct {
	DatabasePath string `json:"database_path"` // empty disables the extraction history store
}

// Load reads configuration from disk, falling back to sensible defaults.
// Environment variables override values from the file.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("EXIF_INSPECTOR_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if err == nil {
		defer f.Close()
		dec := json.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:           "0.0.0.0",
			Port:           defaultPort,
			AllowedOrigins: []string{"*"},
		},
		Uploads: Uploads{
			MaxFileSizeMB: defaultMaxFileSizeMB,
			SpoolDir:      filepath.Join(os.TempDir(), "exif-inspector-uploads"),
			MaxAgeMinutes: defaultSpoolMaxAgeMin,
		},
		ExifTool: ExifTool{
			Binary:         "exiftool",
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Paths: Paths{
			DatabasePath: filepath.Join(os.TempDir(), "exif-inspector.db"),
		},
	}
}

// applyEnv layers well-known environment variables over the file config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		if v == "*" {
			c.Server.AllowedOrigins = []string{"*"}
		} else {
			c.Server.AllowedOrigins = strings.Split(v, ",")
		}
	}
	if v := os.Getenv("TEMP_DIR"); v != "" {
		c.Uploads.SpoolDir = v
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_FILE_SIZE %q: %w", v, err)
		}
		c.Uploads.MaxFileSizeMB = size
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("EXIFTOOL_PATH"); v != "" {
		c.ExifTool.Binary = v
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxFileSizeBytes converts the configured MB limit into bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Uploads.MaxFileSizeMB * 1024 * 1024)
}

// ExifToolTimeout returns the subprocess execution deadline.
func (c *Config) ExifToolTimeout() time.Duration {
	return time.Duration(c.ExifTool.TimeoutSeconds) * time.Second
}

// SpoolMaxAge returns how long an orphaned spool file may linger before the
// janitor removes it.
func (c *Config) SpoolMaxAge() time.Duration {
	return time.Duration(c.Uploads.MaxAgeMinutes) * time.Minute
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
