package scores

import (
	"context"
	"sync"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	scores map[domain.ActorID]WorkerScore
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{scores: make(map[domain.ActorID]WorkerScore)}
}

func (s *InMemoryStore) Upsert(_ context.Context, score WorkerScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[score.WorkerID] = score
	return nil
}

func (s *InMemoryStore) FindByWorker(_ context.Context, workerID domain.ActorID) (*WorkerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[workerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &score, nil
}
