package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/thbase/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "thbase.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default bind host (all interfaces).
	DefaultHost = ""

	// DefaultMaxFileSize is the upload size limit, 5 MiB.
	DefaultMaxFileSize int64 = 5 * 1024 * 1024

	// DefaultImagePrefix is the public URL prefix for stored images.
	DefaultImagePrefix = "/image"
)

// configFileNames lists the accepted config file names in lookup order.
var configFileNames = []string{ConfigFileName, "thbase.yaml", "thbase.yml"}

// Store drivers.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// Image drivers.
const (
	ImagesDisk = "disk"
	ImagesS3   = "s3"
)

// Config represents the complete thbase configuration.
type Config struct {
	// Name is the service name used for tracing and metrics.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Host is the bind host.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the HTTP port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Paths contains the on-disk layout.
	Paths PathsConfig `json:"paths" yaml:"paths"`

	// Upload contains the image acceptance rules.
	Upload UploadConfig `json:"upload" yaml:"upload"`

	// Store selects the record backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// Images selects the image backend.
	Images ImagesConfig `json:"images" yaml:"images"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Log configures the slog handler.
	Log LogConfig `json:"log" yaml:"log"`

	// Server contains HTTP server timeouts.
	Server ServerConfig `json:"server" yaml:"server"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PathsConfig contains the storage directories.
type PathsConfig struct {
	// Image is the directory uploaded images are written to.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Base is the directory holding the baseth<N>.json category files.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`
}

// UploadConfig contains upload limits.
type UploadConfig struct {
	MaxFileSize       int64    `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
	AllowedExtensions []string `json:"allowedExtensions,omitempty" yaml:"allowedExtensions,omitempty"`
	SniffContent      bool     `json:"sniffContent" yaml:"sniffContent"`
}

// StoreConfig selects the record backend.
type StoreConfig struct {
	// Driver is one of "file", "badger" or "memory".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// BadgerPath is the badger data directory (badger driver only).
	BadgerPath string `json:"badgerPath,omitempty" yaml:"badgerPath,omitempty"`
}

// ImagesConfig selects the image backend.
type ImagesConfig struct {
	// Driver is one of "disk" or "s3".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Prefix is the public URL prefix images are served under.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	PublicURL       string `json:"publicURL,omitempty" yaml:"publicURL,omitempty"`
	AccessKeyID     string `json:"accessKeyID,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	UsePathStyle    bool   `json:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	// Name is the tracer name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// ServerConfig contains HTTP timeouts as duration strings (e.g., "30s").
type ServerConfig struct {
	ReadTimeout     string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "thbase",
		Host: DefaultHost,
		Port: DefaultPort,
		Paths: PathsConfig{
			Image: "image",
			Base:  "base",
		},
		Upload: UploadConfig{
			MaxFileSize:       DefaultMaxFileSize,
			AllowedExtensions: []string{".jpeg", ".jpg", ".png", ".gif", ".webp"},
			SniffContent:      true,
		},
		Store: StoreConfig{
			Driver:     StoreFile,
			BadgerPath: "data",
		},
		Images: ImagesConfig{
			Driver: ImagesDisk,
			Prefix: DefaultImagePrefix,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Name: "thbase",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			ReadTimeout:     "30s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for thbase.json, thbase.yaml and thbase.yml, in that order.
func Load(dir string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E101").
		WithDetail("No thbase config found in " + dir).
		WithSuggestion("Run 'thbase init' to write a default config")
}

// LoadOrDefault loads path when given, otherwise the config in the working
// directory, falling back to defaults when none exists.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := Load(wd)
	if errors.Is(err, "E101") {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path. The format follows
// the file extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E102").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E102").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	defaults := New()

	if c.Name == "" {
		c.Name = defaults.Name
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Paths.Image == "" {
		c.Paths.Image = defaults.Paths.Image
	}
	if c.Paths.Base == "" {
		c.Paths.Base = defaults.Paths.Base
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = DefaultMaxFileSize
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = defaults.Upload.AllowedExtensions
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreFile
	}
	if c.Store.BadgerPath == "" {
		c.Store.BadgerPath = defaults.Store.BadgerPath
	}
	if c.Images.Driver == "" {
		c.Images.Driver = ImagesDisk
	}
	if c.Images.Prefix == "" {
		c.Images.Prefix = DefaultImagePrefix
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaults.Metrics.Path
	}
	if c.Tracing.Name == "" {
		c.Tracing.Name = c.Name
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("E103").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Upload.MaxFileSize < 0 {
		return errors.New("E103").
			WithDetail("upload.maxFileSize must not be negative")
	}
	switch c.Store.Driver {
	case StoreFile, StoreBadger, StoreMemory:
	default:
		return errors.New("E103").
			WithDetail("Unknown store driver " + strconv.Quote(c.Store.Driver)).
			WithSuggestion("Use one of: file, badger, memory")
	}
	switch c.Images.Driver {
	case ImagesDisk:
	case ImagesS3:
		if c.Images.S3.Bucket == "" {
			return errors.New("E103").
				WithDetail("images.s3.bucket is required for the s3 driver")
		}
	default:
		return errors.New("E103").
			WithDetail("Unknown images driver " + strconv.Quote(c.Images.Driver)).
			WithSuggestion("Use one of: disk, s3")
	}
	if !strings.HasPrefix(c.Images.Prefix, "/") {
		return errors.New("E103").
			WithDetail("images.prefix must start with /")
	}
	for _, d := range []string{c.Server.ReadTimeout, c.Server.WriteTimeout, c.Server.ShutdownTimeout} {
		if _, err := time.ParseDuration(d); err != nil {
			return errors.New("E103").
				WithDetail("Invalid duration " + strconv.Quote(d))
		}
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E103").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ImagePath returns the absolute or config-relative image directory.
func (c *Config) ImagePath() string {
	return c.resolve(c.Paths.Image)
}

// BasePath returns the absolute or config-relative category directory.
func (c *Config) BasePath() string {
	return c.resolve(c.Paths.Base)
}

// BadgerPath returns the badger data directory.
func (c *Config) BadgerPath() string {
	return c.resolve(c.Store.BadgerPath)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// LogLevel returns the configured slog level (info when unknown).
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// ReadTimeout returns the HTTP server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return durationOr(c.Server.ReadTimeout, 30*time.Second)
}

// WriteTimeout returns the HTTP server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return durationOr(c.Server.WriteTimeout, 30*time.Second)
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}
