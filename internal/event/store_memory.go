package event

import (
	"context"
	"sort"
	"sync"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.EventID]*Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.EventID]*Event)}
}

// Put inserts or replaces an event. Test seeding helper.
func (s *InMemoryStore) Put(e *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *e
	s.events[e.ID] = &copied
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID domain.EventID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *InMemoryStore) ListUpcoming(ctx context.Context, limit int) ([]*Event, error) {
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var upcoming []*Event
	for _, e := range s.events {
		if e.Upcoming(now) {
			copied := *e
			upcoming = append(upcoming, &copied)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}
