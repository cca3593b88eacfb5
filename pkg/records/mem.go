package records

import (
	"context"
	"slices"
	"sync"
)

// MemStore keeps categories in memory.
type MemStore struct {
	mu         sync.RWMutex
	categories map[int][]Record
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{categories: make(map[int][]Record)}
}

// Load returns a copy of the records of category th.
func (s *MemStore) Load(_ context.Context, th int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.categories[th]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(list), nil
}

// Append adds rec to category th.
func (s *MemStore) Append(ctx context.Context, th int, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec = prepare(NextID(s.categories[th]), th, rec)
	s.categories[th] = append(s.categories[th], clone([]Record{rec})[0])
	return rec, nil
}

// Categories returns the th values appended to so far.
func (s *MemStore) Categories(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ths := make([]int, 0, len(s.categories))
	for th := range s.categories {
		ths = append(ths, th)
	}
	slices.Sort(ths)
	return ths, nil
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}
