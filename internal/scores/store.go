package scores

import (
	"context"
	"time"

	"convene/pkg/domain"
)

// WorkerScore is the persisted aggregate for one worker.
type WorkerScore struct {
	WorkerID   domain.ActorID `json:"worker_id"`
	Registered int            `json:"registered"`
	CheckedIn  int            `json:"checked_in"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store persists worker scores.
type Store interface {
	// Upsert writes the score row for a worker, replacing any previous one.
	Upsert(ctx context.Context, score WorkerScore) error
	FindByWorker(ctx context.Context, workerID domain.ActorID) (*WorkerScore, error)
}
