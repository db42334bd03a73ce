// Package scores owns the score-propagation boundary. The aggregation
// arithmetic itself is a collaborator behind the Propagator interface; the
// registration and check-in paths only know that a worker's scores must be
// refreshed after they commit.
package scores

import (
	"context"

	"convene/pkg/domain"
)

//go:generate mockgen -destination=../../mocks/scores/mock_propagator.go -package=mockscores convene/internal/scores Propagator

// Propagator updates the aggregate counters attributed to a worker (and,
// transitively, their branch and state) after a guest is created or checked
// in. Callers await it, but a propagation failure must never undo the guest
// write that preceded it.
type Propagator interface {
	UpdateScoresForWorker(ctx context.Context, workerID domain.ActorID) error
}
