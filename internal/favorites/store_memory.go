package favorites

import (
	"context"
	"sync"

	id "culturetrail/pkg/domain"
)

// InMemoryStore keeps favorites per user, preserving insertion order so list
// responses are stable.
type InMemoryStore struct {
	mu       sync.RWMutex
	byUser   map[id.UserID][]id.SiteID
	presence map[id.UserID]map[id.SiteID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byUser:   make(map[id.UserID][]id.SiteID),
		presence: make(map[id.UserID]map[id.SiteID]struct{}),
	}
}

func (s *InMemoryStore) ListFor(_ context.Context, userID id.UserID) ([]id.SiteID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.SiteID{}, s.byUser[userID]...), nil
}

func (s *InMemoryStore) Add(_ context.Context, userID id.UserID, siteID id.SiteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presence[userID] == nil {
		s.presence[userID] = make(map[id.SiteID]struct{})
	}
	if _, exists := s.presence[userID][siteID]; exists {
		return nil
	}
	s.presence[userID][siteID] = struct{}{}
	s.byUser[userID] = append(s.byUser[userID], siteID)
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, userID id.UserID, siteID id.SiteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.presence[userID][siteID]; !exists {
		return nil
	}
	delete(s.presence[userID], siteID)
	kept := s.byUser[userID][:0]
	for _, v := range s.byUser[userID] {
		if v != siteID {
			kept = append(kept, v)
		}
	}
	s.byUser[userID] = kept
	return nil
}
