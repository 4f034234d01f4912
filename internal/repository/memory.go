package repository

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps results in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]MatchResult
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]MatchResult)}
}

// SaveResult implements MatchStore.
func (s *MemoryStore) SaveResult(_ context.Context, r MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[r.GameID]; !exists {
		s.results[r.GameID] = r
	}
	return nil
}

// RecentResults implements MatchStore.
func (s *MemoryStore) RecentResults(_ context.Context, limit int) ([]MatchResult, error) {
	s.mu.RLock()
	out := make([]MatchResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].GameID < out[j].GameID
		}
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements MatchStore.
func (s *MemoryStore) Close() error { return nil }
