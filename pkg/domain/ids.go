package domain

import (
	"github.com/google/uuid"

	dErrors "convene/pkg/domain-errors"
)

// Typed identifiers for the organizational tree and the records hanging off it.
// Distinct types prevent cross-entity assignment at compile time; construct via
// the Parse* functions at trust boundaries so handlers never hand raw strings to
// services.
type (
	StateID  uuid.UUID
	BranchID uuid.UUID
	ZoneID   uuid.UUID
	ActorID  uuid.UUID
	GuestID  uuid.UUID
	EventID  uuid.UUID
)

func (id StateID) String() string  { return uuid.UUID(id).String() }
func (id BranchID) String() string { return uuid.UUID(id).String() }
func (id ZoneID) String() string   { return uuid.UUID(id).String() }
func (id ActorID) String() string  { return uuid.UUID(id).String() }
func (id GuestID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }

func (id StateID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BranchID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ZoneID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id GuestID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical UUID form on the wire. Defined types do
// not inherit uuid.UUID's methods, so each ID carries its own.
func (id StateID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id BranchID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ZoneID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ActorID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id GuestID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *StateID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BranchID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ZoneID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ActorID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *GuestID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	return u, nil
}

func ParseStateID(s string) (StateID, error) {
	u, err := parseUUID(s, "state id")
	return StateID(u), err
}

func ParseBranchID(s string) (BranchID, error) {
	u, err := parseUUID(s, "branch id")
	return BranchID(u), err
}

func ParseZoneID(s string) (ZoneID, error) {
	u, err := parseUUID(s, "zone id")
	return ZoneID(u), err
}

func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	return ActorID(u), err
}

func ParseGuestID(s string) (GuestID, error) {
	u, err := parseUUID(s, "guest id")
	return GuestID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}
