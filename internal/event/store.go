package event

import (
	"context"

	"convene/pkg/domain"
)

// Store abstracts event lookups.
type Store interface {
	FindByID(ctx context.Context, eventID domain.EventID) (*Event, error)

	// ListUpcoming returns the next limit active events scheduled after the
	// request time, soonest first.
	ListUpcoming(ctx context.Context, limit int) ([]*Event, error)
}
