package upload

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNotFound is returned when a stored file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrType is returned when a file is not an accepted image.
var ErrType = errors.New("upload: file type not allowed")

// IsUploadError reports whether err is a client-side upload rejection
// (type or size) as opposed to a storage failure.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrTooLarge) || errors.Is(err, ErrType)
}

// Store is the interface for image storage backends.
type Store interface {
	// Save stores the image under name. The store enforces its own size
	// limit while copying and returns ErrTooLarge without leaving a file.
	Save(ctx context.Context, name, contentType string, r io.Reader) (*File, error)

	// Remove deletes a stored image. Removing a missing image returns
	// ErrNotFound.
	Remove(ctx context.Context, name string) error

	// URL returns the public URL of a stored image.
	URL(name string) string
}

// File represents a stored image.
type File struct {
	// Name is the generated storage name.
	Name string

	// OriginalName is the filename sent by the client.
	OriginalName string

	// ContentType is the declared MIME type of the file.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Path is the local filesystem path (DiskStore only).
	Path string

	// URL is the public URL of the image.
	URL string
}

// Config holds the image acceptance rules.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 5 MiB.
	MaxFileSize int64

	// AllowedExtensions is the list of accepted lower-case extensions,
	// including the dot.
	AllowedExtensions []string

	// AllowedTypes is the list of accepted MIME types. Matching ignores case
	// and parameters.
	AllowedTypes []string

	// SniffContent additionally checks the detected content type of the
	// first bytes of the file.
	SniffContent bool
}

// DefaultConfig returns a Config accepting jpeg, png, gif and webp images
// up to 5 MiB.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:       5 * 1024 * 1024,
		AllowedExtensions: []string{".jpeg", ".jpg", ".png", ".gif", ".webp"},
		AllowedTypes: []string{
			"image/jpeg", "image/jpg", "image/pjpeg",
			"image/png", "image/x-png",
			"image/gif",
			"image/webp",
		},
		SniffContent: true,
	}
}

// Check validates the extension of filename and the declared content type.
func (c *Config) Check(filename, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !slices.Contains(c.AllowedExtensions, ext) {
		return ErrType
	}
	if !c.typeAllowed(contentType) {
		return ErrType
	}
	return nil
}

func (c *Config) typeAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, allowed := range c.AllowedTypes {
		if strings.EqualFold(mediaType, allowed) {
			return true
		}
	}
	return false
}
