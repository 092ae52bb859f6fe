// Package cli wires the exif-inspector commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrismannina/exif-inspector/internal/config"
	"github.com/chrismannina/exif-inspector/internal/exiftool"
	"github.com/chrismannina/exif-inspector/internal/logging"
	"github.com/chrismannina/exif-inspector/internal/server"
	"github.com/chrismannina/exif-inspector/internal/spool"
	"github.com/chrismannina/exif-inspector/internal/storage"

	"github.com/spf13/cobra"
)

// Execute loads configuration and runs the root command.
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	return NewRootCmd(cfg, log).Execute()
}

// NewRootCmd creates the root Cobra command.
func NewRootCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "exif-inspector",
		Short: "HTTP service for extracting EXIF and Fujifilm recipe data from images",
		Long: `exif-inspector serves an API that accepts image uploads, runs exiftool
against them, and returns parsed metadata: full EXIF records, Fujifilm
film-simulation recipes, and metadata-derived filename proposals.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(cfg, log))
	rootCmd.AddCommand(newToolsCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the EXIF inspection HTTP server.

Examples:
  # Serve on the configured address
  exif-inspector serve

  # Override the listen port
  exif-inspector serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tool := exiftool.New(cfg.ExifTool.Binary, cfg.ExifToolTimeout())
			if status := tool.Check(); status.Available {
				log.Info("exiftool detected", "version", status.Version, "path", status.Path)
			} else {
				log.Warn("exiftool not found; extraction requests will fail until it is installed",
					"binary", cfg.ExifTool.Binary, "error", status.Error)
			}

			sp, err := spool.Open(cfg.Uploads.SpoolDir, cfg.SpoolMaxAge(), log)
			if err != nil {
				return fmt.Errorf("failed to open upload spool: %w", err)
			}
			go func() {
				if err := sp.Watch(ctx); err != nil {
					log.Warn("spool janitor stopped", "error", err)
				}
			}()

			var store *storage.Store
			if cfg.Paths.DatabasePath != "" {
				store, err = storage.New(cfg.Paths.DatabasePath)
				if err != nil {
					log.Warn("extraction history disabled", "path", cfg.Paths.DatabasePath, "error", err)
					store = nil
				} else {
					defer store.Close()
				}
			}

			srv := server.New(cfg, tool, sp, store, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")

	return cmd
}

func newToolsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check availability of the external metadata tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := exiftool.New(cfg.ExifTool.Binary, cfg.ExifToolTimeout())
			status := tool.Check()
			if !status.Available {
				fmt.Printf("exiftool: NOT AVAILABLE (%v)\n", status.Error)
				return fmt.Errorf("exiftool is not installed or not on PATH")
			}
			fmt.Printf("exiftool: available\n")
			fmt.Printf("  Version: %s\n", status.Version)
			fmt.Printf("  Path:    %s\n", status.Path)
			return nil
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Configuration:\n\n")
			fmt.Printf("Listen Address:   %s\n", cfg.Addr())
			fmt.Printf("Max File Size:    %.1f MB\n", cfg.Uploads.MaxFileSizeMB)
			fmt.Printf("Spool Directory:  %s\n", cfg.Uploads.SpoolDir)
			fmt.Printf("Spool Max Age:    %s\n", cfg.SpoolMaxAge())
			fmt.Printf("ExifTool Binary:  %s\n", cfg.ExifTool.Binary)
			fmt.Printf("ExifTool Timeout: %s\n", cfg.ExifToolTimeout())
			fmt.Printf("History Database: %s\n", cfg.Paths.DatabasePath)
			fmt.Printf("Log Level:        %s\n", cfg.Logging.Level)
			fmt.Printf("Log Format:       %s\n", cfg.Logging.Format)
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("exif-inspector %s\n", server.Version)
		},
	}
}
