// Package models holds the guest record and its lifecycle rules.
package models

import (
	"strings"
	"time"

	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
)

// Guest is the mutable record at the center of the system.
//
// Invariants:
//   - CheckedIn is true exactly when Status is checked_in
//   - (Phone, EventID) is unique: at most one guest record per phone per event
//   - PickupStation is set exactly when Transport == bus
//   - a guest may be deleted only while CheckedIn == false
//
// Ownership: the (EventID, BranchID) pair owns the record for authorization
// purposes. RegisteredBy and CheckedInBy are non-owning back-references used
// for attribution and score propagation only.
type Guest struct {
	ID            domain.GuestID             `json:"id"`
	Name          string                     `json:"name"`
	Phone         string                     `json:"phone"`
	Email         string                     `json:"email,omitempty"`
	EventID       domain.EventID             `json:"event_id"`
	StateID       domain.StateID             `json:"state_id"`
	BranchID      domain.BranchID            `json:"branch_id"`
	PickupStation string                     `json:"pickup_station,omitempty"`
	Transport     domain.TransportPreference `json:"transport_preference"`
	Status        Status                     `json:"status"`
	CheckedIn     bool                       `json:"checked_in"`
	CheckedInBy   *domain.ActorID            `json:"checked_in_by,omitempty"`
	CheckedInAt   *time.Time                 `json:"checked_in_time,omitempty"`
	CheckInNotes  string                     `json:"check_in_notes,omitempty"`
	RegisteredBy  domain.ActorID             `json:"registered_by"`
	RegisteredAt  time.Time                  `json:"registered_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// NewGuest constructs a freshly registered guest in the invited state.
func NewGuest(
	id domain.GuestID,
	name, phone, email string,
	eventID domain.EventID,
	stateID domain.StateID,
	branchID domain.BranchID,
	transport domain.TransportPreference,
	pickupStation string,
	registeredBy domain.ActorID,
	now time.Time,
) (*Guest, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest name is required")
	}
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest phone is required")
	}
	if err := ValidateTransport(transport, pickupStation); err != nil {
		return nil, err
	}
	return &Guest{
		ID:            id,
		Name:          name,
		Phone:         phone,
		Email:         strings.TrimSpace(email),
		EventID:       eventID,
		StateID:       stateID,
		BranchID:      branchID,
		PickupStation: pickupStation,
		Transport:     transport,
		Status:        StatusInvited,
		RegisteredBy:  registeredBy,
		RegisteredAt:  now,
		UpdatedAt:     now,
	}, nil
}

// ValidateTransport enforces the pickup-station rule: required for bus,
// forbidden for private transport.
func ValidateTransport(transport domain.TransportPreference, pickupStation string) error {
	if !transport.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid transport preference")
	}
	if transport == domain.TransportBus && strings.TrimSpace(pickupStation) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "pickup station is required for bus transport")
	}
	if transport == domain.TransportPrivate && strings.TrimSpace(pickupStation) != "" {
		return dErrors.New(dErrors.CodeInvalidInput, "pickup station only applies to bus transport")
	}
	return nil
}

// CanEdit forbids edits once the guest is checked in or the event's scheduled
// time has passed, regardless of what the transition table would allow.
// Defense in depth for the terminal checked_in state.
func (g *Guest) CanEdit(eventTime, now time.Time) error {
	if g.CheckedIn {
		return dErrors.New(dErrors.CodeConflict, "guest is already checked in")
	}
	if now.After(eventTime) {
		return dErrors.New(dErrors.CodeConflict, "event has already taken place")
	}
	return nil
}

// CanDelete refuses deletion of checked-in guests.
func (g *Guest) CanDelete() error {
	if g.CheckedIn {
		return dErrors.New(dErrors.CodeConflict, "cannot delete checked-in guest")
	}
	return nil
}
