// Package event holds the event records guests register for.
package event

import (
	"time"

	"convene/pkg/domain"
)

// Event is an occasion guests are registered for and checked in at.
type Event struct {
	ID          domain.EventID `json:"id"`
	Name        string         `json:"name"`
	Venue       string         `json:"venue"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Active      bool           `json:"active"`
}

// Upcoming reports whether the event is still ahead of now and active.
func (e *Event) Upcoming(now time.Time) bool {
	return e.Active && e.ScheduledAt.After(now)
}
