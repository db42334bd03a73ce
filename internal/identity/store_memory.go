package identity

import (
	"context"
	"strings"
	"sync"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	actors map[domain.ActorID]*Actor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{actors: make(map[domain.ActorID]*Actor)}
}

// Put inserts or replaces an actor. Test seeding helper.
func (s *InMemoryStore) Put(actor *Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := cloneActor(actor)
	s.actors[actor.ID] = copied
}

func (s *InMemoryStore) FindByID(_ context.Context, actorID domain.ActorID) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneActor(actor), nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, actor := range s.actors {
		if strings.EqualFold(actor.Email, email) {
			return cloneActor(actor), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func cloneActor(a *Actor) *Actor {
	copied := *a
	copied.AssignedZones = append([]domain.ZoneID(nil), a.AssignedZones...)
	if a.StateID != nil {
		stateID := *a.StateID
		copied.StateID = &stateID
	}
	if a.BranchID != nil {
		branchID := *a.BranchID
		copied.BranchID = &branchID
	}
	return &copied
}
