package models

import (
	"time"

	"convene/internal/policy"
	"convene/pkg/domain"
)

// Filter is the single query-filter object every guest read carries. The
// jurisdiction Scope is mandatory; the caller-supplied fields intersect with
// it and can only narrow access, never broaden it.
type Filter struct {
	Scope policy.Scope

	EventID      *domain.EventID
	RegisteredBy *domain.ActorID
	Transport    *domain.TransportPreference
	Status       *Status
	CheckedIn    *bool
	From         *time.Time
	To           *time.Time
	// Search matches name, email and phone, case-insensitively.
	Search string
}

// Narrow binds the jurisdiction scope to the filter. The scope always comes
// whole from the resolver; caller fields only ever intersect with it, so a
// narrowed filter cannot admit a guest the scope excludes.
func (f Filter) Narrow(scope policy.Scope) Filter {
	f.Scope = scope
	return f
}

// Matches evaluates the filter against a guest in memory. The postgres store
// compiles the same semantics to SQL; this is the reference implementation the
// memory store and tests share.
func (f Filter) Matches(g *Guest) bool {
	if !f.Scope.Covers(g.StateID, g.BranchID) {
		return false
	}
	if f.EventID != nil && g.EventID != *f.EventID {
		return false
	}
	if f.RegisteredBy != nil && g.RegisteredBy != *f.RegisteredBy {
		return false
	}
	if f.Transport != nil && g.Transport != *f.Transport {
		return false
	}
	if f.Status != nil && g.Status != *f.Status {
		return false
	}
	if f.CheckedIn != nil && g.CheckedIn != *f.CheckedIn {
		return false
	}
	if f.From != nil && g.RegisteredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && g.RegisteredAt.After(*f.To) {
		return false
	}
	if f.Search != "" && !matchesSearch(g, f.Search) {
		return false
	}
	return true
}

// Page bounds listing queries.
type Page struct {
	Offset int
	Limit  int
}

// Stats are the aggregate counts derived from a filtered guest set.
type Stats struct {
	Total     int
	CheckedIn int
	// Bus counts checked-in guests on bus transport.
	Bus int
}

// DayCount is one day's registrations for trend aggregation.
type DayCount struct {
	Day   time.Time
	Count int
}

// WorkerCount groups guests by registering worker.
type WorkerCount struct {
	WorkerID  domain.ActorID
	Total     int
	CheckedIn int
}

// EventCount groups guests by event.
type EventCount struct {
	EventID   domain.EventID
	Total     int
	CheckedIn int
	Bus       int
}
