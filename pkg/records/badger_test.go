package records

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func TestBadgerStore_MalformedValueRestartsAtOne(t *testing.T) {
	s, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	defer s.Close()
	s.now = func() time.Time { return time.UnixMilli(99) }

	if err := s.putRaw(8, []byte("{broken")); err != nil {
		t.Fatalf("putRaw: %v", err)
	}

	rec, err := s.Append(context.Background(), 8, sampleRecord("l"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("id = %d, want 1", rec.ID)
	}

	ths, err := s.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(ths) != 1 || ths[0] != 8 {
		t.Fatalf("Categories = %v, corrupt backups must not count", ths)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	if _, err := s.Append(ctx, 16, sampleRecord("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	rec, err := s.Append(ctx, 16, sampleRecord("b"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 2 {
		t.Fatalf("id after reopen = %d, want 2", rec.ID)
	}
}

func TestBadgerStore_KeepsOffSchemaEntries(t *testing.T) {
	s, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	defer s.Close()

	raw := `[{"id":4,"link":"a","th":2,"base_type":{"foo":"x"},"likes":3}]`
	if err := s.putRaw(2, []byte(raw)); err != nil {
		t.Fatalf("putRaw: %v", err)
	}

	rec, err := s.Append(context.Background(), 2, sampleRecord("b"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 5 {
		t.Fatalf("id = %d, want 5", rec.ID)
	}

	var stored []json.RawMessage
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(categoryKey(2))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("entries = %d, want 2", len(stored))
	}
	if got := string(stored[0]); got != `{"id":4,"link":"a","th":2,"base_type":{"foo":"x"},"likes":3}` {
		t.Errorf("existing entry rewritten to %s", got)
	}
}
