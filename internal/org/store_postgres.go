package org

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// PostgresStore reads the organizational tree from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed org store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindZone(ctx context.Context, zoneID domain.ZoneID) (*Zone, error) {
	var z Zone
	var id, branchID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, branch_id, name FROM zones WHERE id = $1`,
		uuid.UUID(zoneID),
	).Scan(&id, &branchID, &z.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find zone: %w", err)
	}
	z.ID = domain.ZoneID(id)
	z.BranchID = domain.BranchID(branchID)
	return &z, nil
}

func (s *PostgresStore) FindBranch(ctx context.Context, branchID domain.BranchID) (*Branch, error) {
	var b Branch
	var id, stateID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, state_id, name FROM branches WHERE id = $1`,
		uuid.UUID(branchID),
	).Scan(&id, &stateID, &b.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find branch: %w", err)
	}
	b.ID = domain.BranchID(id)
	b.StateID = domain.StateID(stateID)
	return &b, nil
}

func (s *PostgresStore) FindState(ctx context.Context, stateID domain.StateID) (*State, error) {
	var st State
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM states WHERE id = $1`,
		uuid.UUID(stateID),
	).Scan(&id, &st.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find state: %w", err)
	}
	st.ID = domain.StateID(id)
	return &st, nil
}

func (s *PostgresStore) BranchesForZones(ctx context.Context, zoneIDs []domain.ZoneID) ([]domain.BranchID, error) {
	if len(zoneIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(zoneIDs))
	for i, zoneID := range zoneIDs {
		ids[i] = uuid.UUID(zoneID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT branch_id FROM zones WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("branches for zones: %w", err)
	}
	defer rows.Close()

	var branches []domain.BranchID
	for rows.Next() {
		var branchID uuid.UUID
		if err := rows.Scan(&branchID); err != nil {
			return nil, fmt.Errorf("scan branch id: %w", err)
		}
		branches = append(branches, domain.BranchID(branchID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	return branches, nil
}
