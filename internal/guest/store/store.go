// Package store persists guest records. Implementations return sentinel
// errors for infrastructure facts; services translate them to domain errors.
package store

import (
	"context"
	"time"

	"convene/internal/guest/models"
	"convene/pkg/domain"
)

// Store is the guest persistence contract shared by the check-in, admin and
// analytics services.
type Store interface {
	// Insert persists a new guest. Returns sentinel.ErrConflict when another
	// guest already holds the same (phone, event) pair.
	Insert(ctx context.Context, g *models.Guest) error

	FindByID(ctx context.Context, guestID domain.GuestID) (*models.Guest, error)

	// FindBatch loads the targeted guests in one round trip. Missing IDs are
	// simply absent from the result; bulk operations report them per item.
	FindBatch(ctx context.Context, guestIDs []domain.GuestID) ([]*models.Guest, error)

	// List returns guests matching the filter ordered by name, plus the total
	// match count before paging.
	List(ctx context.Context, filter models.Filter, page models.Page) ([]*models.Guest, int, error)

	// Update persists mutable guest fields. Returns sentinel.ErrNotFound when
	// the guest no longer exists.
	Update(ctx context.Context, g *models.Guest) error

	// CheckIn atomically flips the guest to checked-in: status, flag, actor,
	// time and notes in one conditional update that only applies while
	// checked_in is still false. Returns sentinel.ErrInvalidState when the
	// guest is already checked in and sentinel.ErrNotFound when absent. This
	// closes the read-then-write race under concurrent check-in attempts.
	CheckIn(ctx context.Context, guestID domain.GuestID, by domain.ActorID, at time.Time, notes string) (*models.Guest, error)

	// Delete removes a guest, refusing checked-in records at the store level
	// (sentinel.ErrInvalidState) so the rule holds even under races.
	Delete(ctx context.Context, guestID domain.GuestID) error

	// Stats aggregates counts under the filter.
	Stats(ctx context.Context, filter models.Filter) (models.Stats, error)

	// CountByStatus groups matching guests by lifecycle status.
	CountByStatus(ctx context.Context, filter models.Filter) (map[models.Status]int, error)

	// CountByDay groups matching guests by registration day (UTC).
	CountByDay(ctx context.Context, filter models.Filter) ([]models.DayCount, error)

	// CountByWorker groups matching guests by registering worker.
	CountByWorker(ctx context.Context, filter models.Filter) ([]models.WorkerCount, error)

	// CountByEvent groups matching guests by event.
	CountByEvent(ctx context.Context, filter models.Filter) ([]models.EventCount, error)

	// CountForWorker returns the registered/checked-in totals attributed to a
	// worker across all events. Input to score propagation.
	CountForWorker(ctx context.Context, workerID domain.ActorID) (registered, checkedIn int, err error)
}
