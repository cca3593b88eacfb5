package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/pkg/feed"
	"github.com/vango-dev/thbase/pkg/records"
	"github.com/vango-dev/thbase/pkg/submission"
	"github.com/vango-dev/thbase/pkg/upload"
)

// Server is the thbase HTTP server.
type Server struct {
	config *config.Config

	// Stores
	records records.Store
	images  upload.Store

	// disk is set when images are served from the local image directory.
	disk *upload.DiskStore

	receiver   *upload.Receiver
	submission *submission.Handler
	feed       *feed.Hub

	handler    http.Handler
	httpServer *http.Server

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecordStore uses store instead of the one selected by store.driver.
func WithRecordStore(store records.Store) Option {
	return func(s *Server) {
		s.records = store
	}
}

// WithImageStore uses store instead of the one selected by images.driver.
// Images are only served over HTTP when store is a *upload.DiskStore.
func WithImageStore(store upload.Store) Option {
	return func(s *Server) {
		s.images = store
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server from cfg. The image and base directories are created
// when the disk and file drivers are in use.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.records == nil {
		store, err := openRecords(cfg)
		if err != nil {
			return nil, err
		}
		s.records = store
	}
	s.records = records.Traced(s.records, cfg.Tracing.Name)

	if s.images == nil {
		store, err := openImages(cfg)
		if err != nil {
			s.records.Close()
			return nil, err
		}
		s.images = store
	}
	s.disk, _ = s.images.(*upload.DiskStore)

	s.receiver = upload.NewReceiver(s.images, uploadConfig(cfg))
	s.feed = feed.NewHub(feed.DefaultBuffer)
	s.feed.SetLogger(s.logger.With("subsystem", "feed"))
	s.submission = submission.New(submission.Options{
		Receiver: s.receiver,
		Records:  s.records,
		Feed:     s.feed,
		Logger:   s.logger,
	})
	s.handler = s.routes()

	s.logger.Debug("server configured",
		"store", cfg.Store.Driver,
		"images", cfg.Images.Driver,
		"metrics", cfg.Metrics.Enabled)

	return s, nil
}

func openRecords(cfg *config.Config) (records.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreBadger:
		store, err := records.OpenBadgerStore(cfg.BadgerPath())
		if err != nil {
			return nil, errors.New("E304").Wrap(err)
		}
		return store, nil
	case config.StoreMemory:
		return records.NewMemStore(), nil
	default:
		store, err := records.NewFileStore(cfg.BasePath())
		if err != nil {
			return nil, errors.New("E304").
				WithDetail("Cannot create base directory " + cfg.BasePath()).
				Wrap(err)
		}
		return store, nil
	}
}

func openImages(cfg *config.Config) (upload.Store, error) {
	if cfg.Images.Driver == config.ImagesS3 {
		s3cfg := cfg.Images.S3
		client := upload.NewS3Client(upload.S3ClientOptions{
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
		return upload.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix, s3cfg.PublicURL, cfg.Upload.MaxFileSize), nil
	}

	store, err := upload.NewDiskStore(cfg.ImagePath(), cfg.Images.Prefix, cfg.Upload.MaxFileSize)
	if err != nil {
		return nil, errors.New("E301").
			WithDetail("Cannot create image directory " + cfg.ImagePath()).
			Wrap(err)
	}
	return store, nil
}

func uploadConfig(cfg *config.Config) *upload.Config {
	c := upload.DefaultConfig()
	c.MaxFileSize = cfg.Upload.MaxFileSize
	if len(cfg.Upload.AllowedExtensions) > 0 {
		c.AllowedExtensions = cfg.Upload.AllowedExtensions
	}
	c.SniffContent = cfg.Upload.SniffContent
	return c
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run starts the HTTP server on the configured address and blocks until ctx
// is done or a shutdown signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or a shutdown signal
// arrives, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadTimeout(),
		ReadTimeout:       s.config.ReadTimeout(),
		WriteTimeout:      s.config.WriteTimeout(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server within the configured timeout.
// Feed subscribers are disconnected first so their handlers return.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout())
	defer cancel()

	s.feed.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Close releases the record store.
func (s *Server) Close() error {
	return s.records.Close()
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.config
}

// Records returns the record store.
func (s *Server) Records() records.Store {
	return s.records
}

// Feed returns the live feed hub.
func (s *Server) Feed() *feed.Hub {
	return s.feed
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
