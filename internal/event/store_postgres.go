package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

// PostgresStore reads events from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID domain.EventID) (*Event, error) {
	var e Event
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, venue, scheduled_at, active FROM events WHERE id = $1`,
		uuid.UUID(eventID),
	).Scan(&id, &e.Name, &e.Venue, &e.ScheduledAt, &e.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e.ID = domain.EventID(id)
	return &e, nil
}

func (s *PostgresStore) ListUpcoming(ctx context.Context, limit int) ([]*Event, error) {
	now := requestcontext.Now(ctx)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, venue, scheduled_at, active
		FROM events
		WHERE active AND scheduled_at > $1
		ORDER BY scheduled_at
		LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var id uuid.UUID
		if err := rows.Scan(&id, &e.Name, &e.Venue, &e.ScheduledAt, &e.Active); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.ID = domain.EventID(id)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
