package org

import (
	"context"

	"convene/pkg/domain"
)

// Store abstracts organizational tree lookups. Implementations return
// sentinel.ErrNotFound (optionally wrapped) for absent nodes.
type Store interface {
	FindZone(ctx context.Context, zoneID domain.ZoneID) (*Zone, error)
	FindBranch(ctx context.Context, branchID domain.BranchID) (*Branch, error)
	FindState(ctx context.Context, stateID domain.StateID) (*State, error)

	// BranchesForZones resolves the distinct branches owning the given zones.
	// Unknown zone IDs are skipped: jurisdiction resolution fails closed
	// elsewhere, and a stale assignment must not break every request.
	BranchesForZones(ctx context.Context, zoneIDs []domain.ZoneID) ([]domain.BranchID, error)
}
