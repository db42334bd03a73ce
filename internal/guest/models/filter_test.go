package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"convene/internal/policy"
	"convene/pkg/domain"
)

func filterGuest() *Guest {
	return &Guest{
		ID:           domain.GuestID(uuid.New()),
		Name:         "Amina Bello",
		Phone:        "+2348012345678",
		Email:        "amina@example.com",
		EventID:      domain.EventID(uuid.New()),
		StateID:      domain.StateID(uuid.New()),
		BranchID:     domain.BranchID(uuid.New()),
		Transport:    domain.TransportBus,
		Status:       StatusInvited,
		RegisteredBy: domain.ActorID(uuid.New()),
		RegisteredAt: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFilterMatches(t *testing.T) {
	t.Run("zero-value scope matches nothing", func(t *testing.T) {
		g := filterGuest()
		assert.False(t, Filter{}.Matches(g), "an unscoped filter must fail closed")
	})

	t.Run("scope is the outer gate", func(t *testing.T) {
		g := filterGuest()
		in := Filter{Scope: policy.Scope{BranchIDs: []domain.BranchID{g.BranchID}}}
		out := Filter{Scope: policy.Scope{BranchIDs: []domain.BranchID{domain.BranchID(uuid.New())}}}
		assert.True(t, in.Matches(g))
		assert.False(t, out.Matches(g))
	})

	t.Run("narrowing replaces the scope without widening matches", func(t *testing.T) {
		g := filterGuest()
		wide := Filter{EventID: &g.EventID}.Narrow(policy.Scope{All: true})
		assert.True(t, wide.Matches(g))

		narrowed := wide.Narrow(policy.Scope{BranchIDs: []domain.BranchID{domain.BranchID(uuid.New())}})
		assert.False(t, narrowed.Matches(g), "a narrowed filter must not admit out-of-scope guests")
	})

	t.Run("caller filters intersect with the scope", func(t *testing.T) {
		g := filterGuest()
		scope := policy.Scope{All: true}

		otherEvent := domain.EventID(uuid.New())
		assert.False(t, Filter{Scope: scope, EventID: &otherEvent}.Matches(g))
		assert.True(t, Filter{Scope: scope, EventID: &g.EventID}.Matches(g))

		bus := domain.TransportBus
		private := domain.TransportPrivate
		assert.True(t, Filter{Scope: scope, Transport: &bus}.Matches(g))
		assert.False(t, Filter{Scope: scope, Transport: &private}.Matches(g))

		checkedIn := true
		assert.False(t, Filter{Scope: scope, CheckedIn: &checkedIn}.Matches(g))
	})

	t.Run("date range bounds registration time", func(t *testing.T) {
		g := filterGuest()
		scope := policy.Scope{All: true}

		before := g.RegisteredAt.Add(-time.Hour)
		after := g.RegisteredAt.Add(time.Hour)
		assert.True(t, Filter{Scope: scope, From: &before, To: &after}.Matches(g))
		assert.False(t, Filter{Scope: scope, From: &after}.Matches(g))
		assert.False(t, Filter{Scope: scope, To: &before}.Matches(g))
	})

	t.Run("search is case-insensitive over name email and phone", func(t *testing.T) {
		g := filterGuest()
		scope := policy.Scope{All: true}

		assert.True(t, Filter{Scope: scope, Search: "amina"}.Matches(g))
		assert.True(t, Filter{Scope: scope, Search: "BELLO"}.Matches(g))
		assert.True(t, Filter{Scope: scope, Search: "amina@example.com"}.Matches(g))
		assert.True(t, Filter{Scope: scope, Search: "8012345"}.Matches(g))
		assert.False(t, Filter{Scope: scope, Search: "nobody"}.Matches(g))
	})
}
