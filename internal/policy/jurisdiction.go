package policy

import (
	"context"

	"convene/internal/identity"
	"convene/internal/org"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
)

// Scope is an actor's jurisdiction over guest records, expressed as the
// restriction every query must carry. Exactly one of the three shapes applies:
// unrestricted (All), a whole state (StateID), or a branch set (BranchIDs).
//
// A zone-scoped actor with zero assigned zones never produces a Scope:
// resolution fails closed with CodeForbidden. "No jurisdiction" and "no
// matches" are different failure kinds and must reach the caller differently.
type Scope struct {
	All       bool
	StateID   *domain.StateID
	BranchIDs []domain.BranchID
}

// Covers is the per-item authorization primitive: does this scope admit a
// guest placed at (stateID, branchID)? Bulk operations re-derive this per
// guest rather than trusting batch membership.
func (s Scope) Covers(stateID domain.StateID, branchID domain.BranchID) bool {
	if s.All {
		return true
	}
	if s.StateID != nil {
		return *s.StateID == stateID
	}
	for _, b := range s.BranchIDs {
		if b == branchID {
			return true
		}
	}
	return false
}

// Resolver derives jurisdiction scopes from an actor's role and tree position.
type Resolver struct {
	orgs org.Store
}

func NewResolver(orgs org.Store) *Resolver {
	return &Resolver{orgs: orgs}
}

// ResolveScope builds the actor's jurisdiction scope.
//
// Errors: CodeForbidden when the actor's role carries no guest jurisdiction,
// when a positioned role is missing its position, or when a zone-scoped role
// has zero assigned zones.
func (r *Resolver) ResolveScope(ctx context.Context, actor *identity.Actor) (Scope, error) {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return Scope{All: true}, nil

	case domain.RoleStateAdmin:
		if actor.StateID == nil || actor.StateID.IsZero() {
			return Scope{}, dErrors.New(dErrors.CodeForbidden, "state admin has no state assigned")
		}
		stateID := *actor.StateID
		return Scope{StateID: &stateID}, nil

	case domain.RoleBranchAdmin:
		if actor.BranchID == nil || actor.BranchID.IsZero() {
			return Scope{}, dErrors.New(dErrors.CodeForbidden, "branch admin has no branch assigned")
		}
		return Scope{BranchIDs: []domain.BranchID{*actor.BranchID}}, nil

	case domain.RoleZonalAdmin, domain.RoleRegistrar:
		if len(actor.AssignedZones) == 0 {
			return Scope{}, dErrors.New(dErrors.CodeForbidden, "actor has no assigned zones")
		}
		branches, err := r.orgs.BranchesForZones(ctx, actor.AssignedZones)
		if err != nil {
			return Scope{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve zone branches")
		}
		if len(branches) == 0 {
			// Assigned zones all point at deleted tree nodes. Fail closed.
			return Scope{}, dErrors.New(dErrors.CodeForbidden, "assigned zones resolve to no branches")
		}
		return Scope{BranchIDs: branches}, nil

	default:
		return Scope{}, dErrors.New(dErrors.CodeForbidden, "role has no guest jurisdiction")
	}
}

// ResolveZoneScope builds the scope for one specific zone, verifying the actor
// is actually assigned to it. Used by zone-filtered check-in search.
func (r *Resolver) ResolveZoneScope(ctx context.Context, actor *identity.Actor, zoneID domain.ZoneID) (Scope, error) {
	if !actor.Role.ZoneScoped() {
		return Scope{}, dErrors.New(dErrors.CodeForbidden, "role does not operate on zones")
	}
	if !actor.HasZone(zoneID) {
		return Scope{}, dErrors.New(dErrors.CodeForbidden, "actor is not assigned to this zone")
	}
	zone, err := r.orgs.FindZone(ctx, zoneID)
	if err != nil {
		return Scope{}, dErrors.Wrap(err, dErrors.CodeNotFound, "zone not found")
	}
	return Scope{BranchIDs: []domain.BranchID{zone.BranchID}}, nil
}

// NarrowToZone narrows an actor's jurisdiction to a single zone's branch.
// Zone-scoped roles must be assigned to the zone; positioned admin roles must
// already cover the zone's branch through their general scope. Used by
// zone-filtered statistics, which admins and registrars both consume.
func (r *Resolver) NarrowToZone(ctx context.Context, actor *identity.Actor, zoneID domain.ZoneID) (Scope, error) {
	if actor.Role.ZoneScoped() {
		return r.ResolveZoneScope(ctx, actor, zoneID)
	}
	scope, err := r.ResolveScope(ctx, actor)
	if err != nil {
		return Scope{}, err
	}
	zone, err := r.orgs.FindZone(ctx, zoneID)
	if err != nil {
		return Scope{}, dErrors.Wrap(err, dErrors.CodeNotFound, "zone not found")
	}
	branch, err := r.orgs.FindBranch(ctx, zone.BranchID)
	if err != nil {
		return Scope{}, dErrors.Wrap(err, dErrors.CodeNotFound, "branch not found")
	}
	if !scope.Covers(branch.StateID, branch.ID) {
		return Scope{}, dErrors.New(dErrors.CodeForbidden, "zone is outside the actor's jurisdiction")
	}
	return Scope{BranchIDs: []domain.BranchID{branch.ID}}, nil
}
