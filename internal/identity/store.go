package identity

import (
	"context"

	"convene/pkg/domain"
)

// Store abstracts actor lookups. Implementations return sentinel.ErrNotFound
// for absent actors.
type Store interface {
	FindByID(ctx context.Context, actorID domain.ActorID) (*Actor, error)
	FindByEmail(ctx context.Context, email string) (*Actor, error)
}
