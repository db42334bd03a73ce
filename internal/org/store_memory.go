package org

import (
	"context"
	"sync"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	states   map[domain.StateID]*State
	branches map[domain.BranchID]*Branch
	zones    map[domain.ZoneID]*Zone
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states:   make(map[domain.StateID]*State),
		branches: make(map[domain.BranchID]*Branch),
		zones:    make(map[domain.ZoneID]*Zone),
	}
}

// Seed loads tree nodes. Parent links are the caller's responsibility; the
// store does not validate referential integrity.
func (s *InMemoryStore) Seed(states []State, branches []Branch, zones []Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range states {
		st := states[i]
		s.states[st.ID] = &st
	}
	for i := range branches {
		b := branches[i]
		s.branches[b.ID] = &b
	}
	for i := range zones {
		z := zones[i]
		s.zones[z.ID] = &z
	}
}

func (s *InMemoryStore) FindZone(_ context.Context, zoneID domain.ZoneID) (*Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *z
	return &copied, nil
}

func (s *InMemoryStore) FindBranch(_ context.Context, branchID domain.BranchID) (*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[branchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *InMemoryStore) FindState(_ context.Context, stateID domain.StateID) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[stateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (s *InMemoryStore) BranchesForZones(_ context.Context, zoneIDs []domain.ZoneID) ([]domain.BranchID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.BranchID]struct{}, len(zoneIDs))
	result := make([]domain.BranchID, 0, len(zoneIDs))
	for _, zoneID := range zoneIDs {
		z, ok := s.zones[zoneID]
		if !ok {
			continue
		}
		if _, dup := seen[z.BranchID]; dup {
			continue
		}
		seen[z.BranchID] = struct{}{}
		result = append(result, z.BranchID)
	}
	return result, nil
}
