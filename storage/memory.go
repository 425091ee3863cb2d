// In-memory run ledger.
//
// Information Hiding:
// - Slice storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral servers

package storage

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStorage implements RunStore in process memory.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu   sync.RWMutex
	runs map[string]RunRecord
	seq  map[string]int // insertion order for ties on StartedAt
	next int
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		runs: make(map[string]RunRecord),
		seq:  make(map[string]int),
	}
}

// Record stores a finished run.
func (s *InMemoryStorage) Record(ctx context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		s.seq[run.ID] = s.next
		s.next++
	}
	s.runs[run.ID] = run
	return nil
}

// List returns up to limit runs, most recent first.
func (s *InMemoryStorage) List(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt != runs[j].StartedAt {
			return runs[i].StartedAt > runs[j].StartedAt
		}
		return s.seq[runs[i].ID] > s.seq[runs[j].ID]
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Get returns one run by ID, or nil if not found.
func (s *InMemoryStorage) Get(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Ping always succeeds.
func (s *InMemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *InMemoryStorage) Close() error {
	return nil
}

var _ RunStore = (*InMemoryStorage)(nil)
