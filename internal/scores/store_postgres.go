package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// PostgresStore persists worker scores in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed score store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, score WorkerScore) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worker_scores (worker_id, registered, checked_in, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (worker_id) DO UPDATE SET
			registered = EXCLUDED.registered,
			checked_in = EXCLUDED.checked_in,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(score.WorkerID), score.Registered, score.CheckedIn, score.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert worker score: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByWorker(ctx context.Context, workerID domain.ActorID) (*WorkerScore, error) {
	var score WorkerScore
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT worker_id, registered, checked_in, updated_at
		FROM worker_scores WHERE worker_id = $1`,
		uuid.UUID(workerID),
	).Scan(&id, &score.Registered, &score.CheckedIn, &score.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find worker score: %w", err)
	}
	score.WorkerID = domain.ActorID(id)
	return &score, nil
}
