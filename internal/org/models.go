// Package org holds the read-only organizational tree: states own branches,
// branches own zones. The tree is seeded administratively and never mutated by
// the registration paths, so stores expose lookups only.
package org

import "convene/pkg/domain"

// State is a top-level region.
type State struct {
	ID   domain.StateID `json:"id"`
	Name string         `json:"name"`
}

// Branch belongs to exactly one State.
type Branch struct {
	ID      domain.BranchID `json:"id"`
	StateID domain.StateID  `json:"state_id"`
	Name    string          `json:"name"`
}

// Zone belongs to exactly one Branch.
type Zone struct {
	ID       domain.ZoneID   `json:"id"`
	BranchID domain.BranchID `json:"branch_id"`
	Name     string          `json:"name"`
}
