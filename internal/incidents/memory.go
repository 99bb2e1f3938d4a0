package incidents

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps incidents in process when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Incident
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]Incident)}
}

func (s *MemoryStore) Record(_ context.Context, inc Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[inc.UserID] = append(s.byUser[inc.UserID], inc)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]Incident, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	out := append([]Incident{}, s.byUser[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
