// Package audit captures structured audit events for the registration and
// check-in paths. Events are append-only and best-effort: a publishing
// failure is logged, never surfaced to the caller.
package audit

import (
	"time"

	"convene/pkg/domain"
)

// EventType identifies what happened.
type EventType string

const (
	EventGuestRegistered   EventType = "guest.registered"
	EventGuestCheckedIn    EventType = "guest.checked_in"
	EventGuestStatusChange EventType = "guest.status_changed"
	EventGuestDeleted      EventType = "guest.deleted"
	EventBulkOperation     EventType = "guest.bulk_operation"
)

// Event is one audit record. ActorID is who acted; SubjectID is the guest (or
// batch anchor) acted upon. Detail carries operation-specific fields and must
// stay free of anything the client shouldn't see in an audit export.
type Event struct {
	Type      EventType         `json:"type"`
	ActorID   domain.ActorID    `json:"actor_id"`
	SubjectID string            `json:"subject_id"`
	At        time.Time         `json:"at"`
	Detail    map[string]string `json:"detail,omitempty"`
}
