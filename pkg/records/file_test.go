package records

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileStore_CreatesCategoryFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "base")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := s.Append(context.Background(), 14, sampleRecord("l")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got, want := s.Path(14), filepath.Join(dir, "baseth14.json"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	if _, err := os.Stat(s.Path(14)); err != nil {
		t.Fatalf("expected category file: %v", err)
	}
}

func TestFileStore_FourSpaceIndentation(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.Append(context.Background(), 5, sampleRecord("https://link?a=1&b=2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(s.Path(5))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n    {\n        \"id\": 1,") {
		t.Fatalf("unexpected layout:\n%s", text)
	}
	if !strings.Contains(text, `"link": "https://link?a=1&b=2"`) {
		t.Errorf("expected unescaped link in:\n%s", text)
	}
	if strings.HasSuffix(text, "\n") {
		t.Error("expected no trailing newline")
	}
}

func TestFileStore_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := `[
    {"id": 1, "link": "a", "th": 11, "base_type": [], "image": null, "author": {"name": "Unknown", "tag": ""}},
    {"id": 2, "link": "b", "th": 11, "base_type": ["war"], "image": "x.png", "author": {"name": "n", "tag": "t"}}
]`
	if err := os.WriteFile(filepath.Join(dir, "baseth11.json"), []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rec, err := s.Append(context.Background(), 11, sampleRecord("c"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 3 {
		t.Fatalf("id = %d, want 3", rec.ID)
	}

	list, err := s.Load(context.Background(), 11)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 3 || list[0].Link != "a" || list[1].Link != "b" {
		t.Fatalf("existing records not preserved: %+v", list)
	}
}

func TestFileStore_MalformedFileRestartsAtOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseth7.json")
	if err := os.WriteFile(path, []byte(`[{"id": 1, "link": `), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s.now = func() time.Time { return time.UnixMilli(1234) }

	rec, err := s.Append(context.Background(), 7, sampleRecord("l"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("id = %d, want 1", rec.ID)
	}

	backup, err := os.ReadFile(path + ".corrupt-1234")
	if err != nil {
		t.Fatalf("expected corrupt file to be preserved: %v", err)
	}
	if string(backup) != `[{"id": 1, "link": ` {
		t.Errorf("backup content = %q", backup)
	}

	var list []Record
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &list); err != nil || len(list) != 1 {
		t.Fatalf("rewritten file = %q (%v)", data, err)
	}

	ths, err := s.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(ths) != 1 || ths[0] != 7 {
		t.Errorf("Categories = %v, backups must not count", ths)
	}
}

func TestFileStore_LoadMalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "baseth2.json"), []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.Load(context.Background(), 2); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileStore_KeepsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	existing := `[
    {"id": 1, "link": "a", "th": 9, "base_type": [], "image": null, "author": {"name": "n", "tag": ""}, "approved": true, "likes": 12}
]`
	path := filepath.Join(dir, "baseth9.json")
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rec, err := s.Append(context.Background(), 9, sampleRecord("b"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 2 {
		t.Fatalf("id = %d, want 2", rec.ID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("rewritten file does not parse: %v\n%s", err, data)
	}
	if len(raw) != 2 {
		t.Fatalf("entries = %d, want 2", len(raw))
	}
	if raw[0]["approved"] != true || raw[0]["likes"] != float64(12) {
		t.Errorf("extra fields lost: %v", raw[0])
	}
	if _, ok := raw[1]["approved"]; ok {
		t.Errorf("new record picked up a foreign field: %v", raw[1])
	}
}

func TestFileStore_OffSchemaEntriesAreNotCorrupt(t *testing.T) {
	dir := t.TempDir()
	existing := `[
    {"id": 1, "link": "a", "th": 7, "base_type": ["war"], "image": null, "author": {"name": "n", "tag": ""}},
    {"id": 2, "link": "b", "th": 7, "base_type": {"foo": "x"}, "image": null, "author": {"name": "n", "tag": ""}},
    {"id": "x", "note": "no integer id"},
    "stray"
]`
	path := filepath.Join(dir, "baseth7.json")
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s.now = func() time.Time { return time.UnixMilli(55) }

	rec, err := s.Append(context.Background(), 7, sampleRecord("c"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID != 3 {
		t.Fatalf("id = %d, want 3", rec.ID)
	}
	if _, err := os.Stat(path + ".corrupt-55"); err == nil {
		t.Fatal("valid category was set aside as corrupt")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("rewritten file does not parse: %v", err)
	}
	if len(raw) != 5 {
		t.Fatalf("entries = %d, want 5", len(raw))
	}
	if !strings.Contains(string(data), `"foo": "x"`) {
		t.Errorf("object-shaped base_type not kept:\n%s", data)
	}

	list, err := s.Load(context.Background(), 7)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("Load = %d records, want 4 objects", len(list))
	}
	if list[1].ID != 2 || list[1].Link != "b" || len(list[1].BaseType) != 0 {
		t.Errorf("off-schema record = %+v", list[1])
	}
	if list[3].ID != 3 || list[3].Link != "c" {
		t.Errorf("appended record = %+v", list[3])
	}
}

func TestFileStore_NonArrayCategoryIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseth3.json")
	if err := os.WriteFile(path, []byte(`{"id": 1}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.Append(context.Background(), 3, sampleRecord("l")); err == nil {
		t.Fatal("expected error for a non-array category")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id": 1}` {
		t.Errorf("category file changed to %q", data)
	}
}

func TestFileStore_RecreatesRemovedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "base")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	ths, err := s.Categories(context.Background())
	if err != nil || len(ths) != 0 {
		t.Fatalf("Categories on missing dir = %v, %v", ths, err)
	}
	if _, err := s.Append(context.Background(), 1, sampleRecord("l")); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Append(context.Background(), 4, sampleRecord("l")); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "baseth4.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory = %v, want only baseth4.json", names)
	}
}

func TestCategoryFromFile(t *testing.T) {
	tests := []struct {
		name string
		th   int
		ok   bool
	}{
		{"baseth14.json", 14, true},
		{"baseth-1.json", -1, true},
		{"baseth14.json.corrupt-1", 0, false},
		{".baseth123.tmp", 0, false},
		{"basethx.json", 0, false},
	}
	for _, tt := range tests {
		th, ok := CategoryFromFile(tt.name)
		if th != tt.th || ok != tt.ok {
			t.Errorf("CategoryFromFile(%q) = %d, %v", tt.name, th, ok)
		}
	}
}
