package identity

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

// PostgresStore reads actors from PostgreSQL. Zone assignments live in a
// uuid[] column; registrar zone ordering is the array ordering.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed actor store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const actorColumns = `id, name, email, password_hash, role, state_id, branch_id, assigned_zones, active`

func (s *PostgresStore) FindByID(ctx context.Context, actorID domain.ActorID) (*Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE id = $1`,
		uuid.UUID(actorID),
	)
	return scanActor(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE lower(email) = lower($1)`,
		email,
	)
	return scanActor(row)
}

func scanActor(row *sql.Row) (*Actor, error) {
	var (
		actor    Actor
		id       uuid.UUID
		role     string
		stateID  uuid.NullUUID
		branchID uuid.NullUUID
		zones    []uuid.UUID
	)
	err := row.Scan(&id, &actor.Name, &actor.Email, &actor.PasswordHash, &role,
		&stateID, &branchID, pq.Array(&zones), &actor.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan actor: %w", err)
	}

	actor.ID = domain.ActorID(id)
	actor.Role = domain.Role(role)
	if stateID.Valid {
		sid := domain.StateID(stateID.UUID)
		actor.StateID = &sid
	}
	if branchID.Valid {
		bid := domain.BranchID(branchID.UUID)
		actor.BranchID = &bid
	}
	for _, z := range zones {
		actor.AssignedZones = append(actor.AssignedZones, domain.ZoneID(z))
	}
	return &actor, nil
}
