package contacts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps contacts in process. Used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]map[string]Contact
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string]map[string]Contact), now: time.Now}
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, 0, len(s.byUser[userID]))
	for _, c := range s.byUser[userID] {
		c.Channels = append([]Channel(nil), c.Channels...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, c *Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	contacts, ok := s.byUser[c.UserID]
	if !ok {
		contacts = make(map[string]Contact)
		s.byUser[c.UserID] = contacts
	}
	if prev, ok := contacts[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	stored := *c
	stored.Channels = append([]Channel(nil), c.Channels...)
	contacts[c.ID] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.byUser[userID], id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
