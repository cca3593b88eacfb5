package upload

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DiskStore stores images on the local filesystem.
type DiskStore struct {
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewDiskStore creates a new DiskStore.
//
// Parameters:
//   - dir: Directory to store images in
//   - urlPrefix: Public URL prefix the directory is served under
//   - maxSize: Maximum file size in bytes (0 = no limit)
func NewDiskStore(dir, urlPrefix string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskStore{
		dir:       dir,
		urlPrefix: urlPrefix,
		maxSize:   maxSize,
	}, nil
}

// Dir returns the storage directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the image to the storage directory.
func (s *DiskStore) Save(ctx context.Context, name, contentType string, r io.Reader) (*File, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The directory may have been removed since startup.
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}

	p := filepath.Join(s.dir, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}

	written, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return nil, err
	}

	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(p)
		return nil, ErrTooLarge
	}

	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        written,
		Path:        p,
		URL:         s.URL(name),
	}, nil
}

// Remove deletes a stored image.
func (s *DiskStore) Remove(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// URL returns the public URL of a stored image.
func (s *DiskStore) URL(name string) string {
	return path.Join("/", s.urlPrefix, name)
}
