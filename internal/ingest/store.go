package ingest

import (
	"context"
	"sync"
)

// Store persists upload records in submission order.
type Store interface {
	Insert(ctx context.Context, file MarketFile) error
	Get(ctx context.Context, id string) (MarketFile, error)
	List(ctx context.Context) ([]MarketFile, error)
	// Update loads the record, applies fn and saves the result atomically.
	// When fn fails the stored record is left untouched.
	Update(ctx context.Context, id string, fn func(MarketFile) (MarketFile, error)) (MarketFile, error)
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	files map[string]MarketFile
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]MarketFile)}
}

// Insert appends a record.
func (s *MemoryStore) Insert(ctx context.Context, file MarketFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[file.ID]; exists {
		return ErrDuplicateID
	}
	s.order = append(s.order, file.ID)
	s.files[file.ID] = file
	return nil
}

// Get returns a record by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (MarketFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[id]
	if !ok {
		return MarketFile{}, ErrNotFound
	}
	return file, nil
}

// List returns records in append order.
func (s *MemoryStore) List(ctx context.Context) ([]MarketFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MarketFile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.files[id])
	}
	return out, nil
}

// Update applies fn under the store lock.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(MarketFile) (MarketFile, error)) (MarketFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[id]
	if !ok {
		return MarketFile{}, ErrNotFound
	}
	next, err := fn(file)
	if err != nil {
		return file, err
	}
	s.files[id] = next
	return next, nil
}
