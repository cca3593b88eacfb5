package records

import (
	"context"
	"errors"
)

// DefaultAuthorName is used when a submission carries no author name.
const DefaultAuthorName = "Unknown"

// ErrNotFound is returned by Load for a category that has no records.
var ErrNotFound = errors.New("records: category not found")

// Author identifies who submitted a base.
type Author struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// Record is one submission.
type Record struct {
	ID       int      `json:"id"`
	Link     string   `json:"link"`
	TH       int      `json:"th"`
	BaseType []string `json:"base_type"`
	Image    *string  `json:"image"`
	Author   Author   `json:"author"`
}

// Store persists records per category.
type Store interface {
	// Load returns the records of category th in append order.
	Load(ctx context.Context, th int) ([]Record, error)

	// Append assigns the next id to rec, stores it in category th and
	// returns the stored record.
	Append(ctx context.Context, th int, rec Record) (Record, error)

	// Categories returns the known th values in ascending order.
	Categories(ctx context.Context) ([]int, error)

	// Close releases the store's resources.
	Close() error
}

// NextID returns the id the next record appended to list receives.
func NextID(list []Record) int {
	highest := 0
	for _, r := range list {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest + 1
}

// ImageName returns a pointer to name, or nil when name is empty.
func ImageName(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

// prepare fills the fields Append owns.
func prepare(id, th int, rec Record) Record {
	rec.ID = id
	rec.TH = th
	if rec.BaseType == nil {
		rec.BaseType = []string{}
	}
	if rec.Author.Name == "" {
		rec.Author.Name = DefaultAuthorName
	}
	return rec
}

// clone returns a deep copy of list.
func clone(list []Record) []Record {
	out := make([]Record, len(list))
	for i, r := range list {
		r.BaseType = append([]string{}, r.BaseType...)
		if r.Image != nil {
			img := *r.Image
			r.Image = &img
		}
		out[i] = r
	}
	return out
}
