package scores

import (
	"context"
	"fmt"

	gueststore "convene/internal/guest/store"
	"convene/pkg/domain"
	"convene/pkg/requestcontext"
)

// StoreRecomputer is the default Propagator: it re-derives a worker's counters
// from the guest store and upserts the score row. Recomputing instead of
// incrementing keeps the counters self-healing: a missed propagation is
// repaired by the next one.
type StoreRecomputer struct {
	guests gueststore.Store
	scores Store
}

func NewStoreRecomputer(guests gueststore.Store, scores Store) *StoreRecomputer {
	return &StoreRecomputer{guests: guests, scores: scores}
}

func (r *StoreRecomputer) UpdateScoresForWorker(ctx context.Context, workerID domain.ActorID) error {
	registered, checkedIn, err := r.guests.CountForWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("recompute worker counts: %w", err)
	}
	score := WorkerScore{
		WorkerID:   workerID,
		Registered: registered,
		CheckedIn:  checkedIn,
		UpdatedAt:  requestcontext.Now(ctx),
	}
	if err := r.scores.Upsert(ctx, score); err != nil {
		return fmt.Errorf("upsert worker score: %w", err)
	}
	return nil
}
