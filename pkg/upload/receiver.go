package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// sniffLen is the number of bytes http.DetectContentType considers.
const sniffLen = 512

// Receiver validates image parts and hands them to a Store.
type Receiver struct {
	store  Store
	config *Config
	now    func() time.Time
}

// NewReceiver creates a Receiver. A nil config uses DefaultConfig.
func NewReceiver(store Store, config *Config) *Receiver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Receiver{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Store returns the underlying image store.
func (r *Receiver) Store() Store {
	return r.store
}

// Config returns the acceptance rules.
func (r *Receiver) Config() *Config {
	return r.config
}

// Receive checks header against the acceptance rules and stores the file.
// Rejections (ErrType, ErrTooLarge) happen before anything is written.
func (r *Receiver) Receive(ctx context.Context, header *multipart.FileHeader) (*File, error) {
	if header == nil {
		return nil, ErrNotFound
	}
	if r.config.MaxFileSize > 0 && header.Size > r.config.MaxFileSize {
		return nil, ErrTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if err := r.config.Check(header.Filename, contentType); err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if r.config.SniffContent {
		if err := r.sniff(src); err != nil {
			return nil, err
		}
	}

	name := GenerateName(r.now(), header.Filename)
	file, err := r.store.Save(ctx, name, contentType, src)
	if err != nil {
		return nil, err
	}
	file.OriginalName = header.Filename
	return file, nil
}

// sniff checks the detected type of the first bytes and rewinds src.
func (r *Receiver) sniff(src multipart.File) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read upload: %w", err)
	}
	if !r.config.typeAllowed(http.DetectContentType(head[:n])) {
		return ErrType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	return nil
}
