package learning

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryKey struct {
	firm, header string
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]Entry), now: time.Now}
}

// Lookup returns the entry for a firm's normalized header.
func (s *MemoryStore) Lookup(_ context.Context, firmID, header string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[memoryKey{firmID, header}]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Record upserts entries.
func (s *MemoryStore) Record(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.UpdatedAt = s.now().UTC()
		k := memoryKey{e.FirmID, e.Header}
		if existing, ok := s.entries[k]; ok {
			s.entries[k] = merge(existing, e)
			continue
		}
		e.TimesSeen = 1
		s.entries[k] = e
	}
	return nil
}

// List returns a firm's entries ordered by header.
func (s *MemoryStore) List(_ context.Context, firmID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for k, e := range s.entries {
		if k.firm == firmID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Header < out[j].Header })
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
