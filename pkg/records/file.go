package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"
)

var categoryFile = regexp.MustCompile(`^baseth(-?\d+)\.json$`)

// FileStore keeps one JSON array per category in dir/baseth<th>.json.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	locks categoryLocks
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:    dir,
		logger: slog.Default().With("component", "records", "store", "file"),
		now:    time.Now,
	}, nil
}

// SetLogger sets the store logger.
func (s *FileStore) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Dir returns the category directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the category file path for th.
func (s *FileStore) Path(th int) string {
	return filepath.Join(s.dir, "baseth"+strconv.Itoa(th)+".json")
}

// Load returns the records of category th.
func (s *FileStore) Load(_ context.Context, th int) ([]Record, error) {
	data, err := os.ReadFile(s.Path(th))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entries, err := splitCategory(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(s.Path(th)), err)
	}
	return decodeRecords(entries), nil
}

// Append adds rec to category th and rewrites the category file.
func (s *FileStore) Append(ctx context.Context, th int, rec Record) (Record, error) {
	unlock := s.locks.lock(th)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	// The directory may have been removed since startup.
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Record{}, err
	}

	entries, err := s.read(th)
	if err != nil {
		return Record{}, err
	}

	rec = prepare(nextRawID(entries), th, rec)
	entries, err = appendRecord(entries, rec)
	if err != nil {
		return Record{}, err
	}

	if err := s.write(th, entries); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Categories returns the th values that have a category file.
func (s *FileStore) Categories(_ context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, err
	}

	ths := []int{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if th, ok := CategoryFromFile(entry.Name()); ok {
			ths = append(ths, th)
		}
	}
	slices.Sort(ths)
	return ths, nil
}

// CategoryFromFile returns the th of a category file name such as
// "baseth14.json".
func CategoryFromFile(name string) (int, bool) {
	m := categoryFile.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	th, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return th, true
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error {
	return nil
}

// read loads the raw entries of the category for an append. A file that is
// not valid JSON is set aside as baseth<th>.json.corrupt-<millis> and the
// category restarts empty. Valid JSON that is not an array is an error.
func (s *FileStore) read(th int) ([]json.RawMessage, error) {
	p := s.Path(th)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := splitCategory(data)
	if errors.Is(err, errMalformed) {
		backup := p + ".corrupt-" + strconv.FormatInt(s.now().UnixMilli(), 10)
		s.logger.Warn("category file unreadable, starting a new one",
			"th", th,
			"path", p,
			"backup", backup,
			"error", err)
		if rerr := os.Rename(p, backup); rerr != nil {
			return nil, fmt.Errorf("preserve corrupt %s: %w", filepath.Base(p), rerr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	return entries, nil
}

// write replaces the category file atomically. Entries are re-indented but
// otherwise written as read.
func (s *FileStore) write(th int, entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	data, err := encodeJSON(entries, "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".baseth*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.Path(th)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
