package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/docgate/pkg/journal"
)

// MemoryStorage implements journal.Storage with an in-memory map.
type MemoryStorage struct {
	entries map[string]*journal.Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*journal.Entry),
	}
}

// Store saves a copy of entry.
func (s *MemoryStorage) Store(ctx context.Context, entry *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	s.entries[entry.ID] = &entryCopy
	return nil
}

// Get returns a copy of the entry with id.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, journal.NewStorageError("memory", "get", journal.ErrNotFound)
	}
	entryCopy := *entry
	return &entryCopy, nil
}

// Query returns copies of the matching entries.
func (s *MemoryStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*journal.Entry{}
	for _, entry := range s.entries {
		if query.Matches(entry) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}

	return paginate(results, query), nil
}

// Count returns the number of matching entries.
func (s *MemoryStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if query.Matches(entry) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching entries.
func (s *MemoryStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if query.Matches(entry) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops all entries.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*journal.Entry)
	return nil
}

// Size returns the number of stored entries.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// paginate orders entries by submission time (ID breaks ties) and applies
// the query offset and limit.
func paginate(entries []*journal.Entry, query *journal.Query) []*journal.Entry {
	asc := query.Ascending()
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			if asc {
				return a.SubmittedAt.Before(b.SubmittedAt)
			}
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	if query.Offset >= len(entries) {
		return []*journal.Entry{}
	}
	entries = entries[query.Offset:]
	if query.Limit > 0 && query.Limit < len(entries) {
		entries = entries[:query.Limit]
	}
	return entries
}
