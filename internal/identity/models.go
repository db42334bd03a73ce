// Package identity holds the polymorphic actor entity: admins, workers and
// registrars are one record discriminated by role.
package identity

import (
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
)

// Actor is an authenticated participant in the administrative hierarchy.
//
// Invariants:
//   - Role is one of the enumerated roles
//   - state_admin has StateID set
//   - branch_admin has BranchID set
//   - zonal_admin and registrar need at least one assigned zone before they
//     can perform any zone-scoped operation; the zero-zone case is rejected by
//     jurisdiction resolution, not silently treated as an empty result
type Actor struct {
	ID            domain.ActorID   `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"-"`
	Role          domain.Role      `json:"role"`
	StateID       *domain.StateID  `json:"state_id,omitempty"`
	BranchID      *domain.BranchID `json:"branch_id,omitempty"`
	AssignedZones []domain.ZoneID  `json:"assigned_zones,omitempty"`
	Active        bool             `json:"active"`
}

// ValidatePosition checks the role/tree-position invariants. Actors violating
// them can exist transiently (e.g. a registrar awaiting zone assignment) but
// must not pass jurisdiction resolution.
func (a *Actor) ValidatePosition() error {
	switch a.Role {
	case domain.RoleStateAdmin:
		if a.StateID == nil || a.StateID.IsZero() {
			return dErrors.New(dErrors.CodeInvariantViolation, "state admin must have a state")
		}
	case domain.RoleBranchAdmin:
		if a.BranchID == nil || a.BranchID.IsZero() {
			return dErrors.New(dErrors.CodeInvariantViolation, "branch admin must have a branch")
		}
	}
	return nil
}

// HasZone reports whether the actor is assigned to the given zone.
func (a *Actor) HasZone(zoneID domain.ZoneID) bool {
	for _, z := range a.AssignedZones {
		if z == zoneID {
			return true
		}
	}
	return false
}
