package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		store      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the submission server",
		Long: `Start the HTTP server.

The configuration is read from --config, or from thbase.json,
thbase.yaml or thbase.yml in the working directory. Without a
config file the defaults are used: port 3000, images in ./image,
categories in ./base.

Examples:
  thbase serve
  thbase serve --port=8080
  thbase serve --store=badger
  thbase serve --config=/etc/thbase.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if host != "" {
				cfg.Host = host
			}
			if store != "" {
				cfg.Store.Driver = store
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&store, "store", "", "Record store: file, badger or memory")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	printBanner()
	success("Listening on http://%s", displayAddress(cfg))
	info("Images:   %s (%s)", imageLocation(cfg), cfg.Images.Driver)
	info("Records:  %s (%s)", recordLocation(cfg), cfg.Store.Driver)
	if cfg.Metrics.Enabled {
		info("Metrics:  %s", cfg.Metrics.Path)
	}
	if cfg.Path() == "" {
		warn("No config file found, using defaults (run 'thbase init' to create one)")
	}
	info("Press Ctrl+C to stop")
	info("")

	return srv.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func displayAddress(cfg *config.Config) string {
	if cfg.Host == "" {
		return "localhost" + cfg.Address()
	}
	return cfg.Address()
}

func imageLocation(cfg *config.Config) string {
	if cfg.Images.Driver == config.ImagesS3 {
		return "s3://" + cfg.Images.S3.Bucket + "/" + cfg.Images.S3.Prefix
	}
	return cfg.ImagePath()
}

func recordLocation(cfg *config.Config) string {
	switch cfg.Store.Driver {
	case config.StoreBadger:
		return cfg.BadgerPath()
	case config.StoreMemory:
		return "memory"
	default:
		return cfg.BasePath()
	}
}
