package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	categoryPrefix = "category:"
	corruptPrefix  = "corrupt:"

	// maxConflictRetries bounds the optimistic retries of one append.
	maxConflictRetries = 16
)

// BadgerStore keeps one JSON array per category in a badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
	locks  categoryLocks
}

// OpenBadgerStore opens (or creates) a badger database at path.
// An empty path opens an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{
		db:     db,
		logger: slog.Default().With("component", "records", "store", "badger"),
		now:    time.Now,
	}, nil
}

// Load returns the records of category th.
func (s *BadgerStore) Load(_ context.Context, th int) ([]Record, error) {
	var entries []json.RawMessage
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(categoryKey(th))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entries, err = splitCategory(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(entries), nil
}

// Append adds rec to category th inside one transaction. Appends within this
// process are serialised per category; a conflict with another writer is
// retried.
func (s *BadgerStore) Append(ctx context.Context, th int, rec Record) (Record, error) {
	unlock := s.locks.lock(th)
	defer unlock()

	var stored Record
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			entries, err := s.read(txn, th)
			if err != nil {
				return err
			}

			stored = prepare(nextRawID(entries), th, rec)
			entries, err = appendRecord(entries, stored)
			if err != nil {
				return err
			}
			data, err := encodeJSON(entries, "")
			if err != nil {
				return err
			}
			return txn.Set(categoryKey(th), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return Record{}, err
		}
		return stored, nil
	}
	return Record{}, fmt.Errorf("append th %d: %w", th, badger.ErrConflict)
}

// Categories returns the th values present in the database.
func (s *BadgerStore) Categories(_ context.Context) ([]int, error) {
	ths := []int{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(categoryPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			th, err := strconv.Atoi(strings.TrimPrefix(key, categoryPrefix))
			if err != nil {
				continue
			}
			ths = append(ths, th)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ths)
	return ths, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// read loads the raw entries of the category inside txn. A value that is not
// valid JSON is copied to corrupt:<th>:<millis> and the category restarts
// empty.
func (s *BadgerStore) read(txn *badger.Txn, th int) ([]json.RawMessage, error) {
	item, err := txn.Get(categoryKey(th))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	entries, err := splitCategory(raw)
	if errors.Is(err, errMalformed) {
		backup := fmt.Sprintf("%s%d:%d", corruptPrefix, th, s.now().UnixMilli())
		s.logger.Warn("category value unreadable, starting a new one",
			"th", th,
			"backup", backup,
			"error", err)
		if err := txn.Set([]byte(backup), raw); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("th %d: %w", th, err)
	}
	return entries, nil
}

// putRaw stores a raw category value. Tests use it to plant corrupt data.
func (s *BadgerStore) putRaw(th int, raw []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(categoryKey(th), raw)
	})
}

func categoryKey(th int) []byte {
	return []byte(categoryPrefix + strconv.Itoa(th))
}
