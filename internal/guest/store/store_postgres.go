package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"convene/internal/guest/models"
	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
)

// PostgresStore persists guests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed guest store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const guestColumns = `id, name, phone, email, event_id, state_id, branch_id,
	pickup_station, transport, status, checked_in, checked_in_by, checked_in_at,
	check_in_notes, registered_by, registered_at, updated_at`

// uniqueViolation is the postgres error code raised by the
// (phone, event_id) unique index.
const uniqueViolation = "23505"

func (s *PostgresStore) Insert(ctx context.Context, g *models.Guest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guests (`+guestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(g.ID), g.Name, g.Phone, g.Email,
		uuid.UUID(g.EventID), uuid.UUID(g.StateID), uuid.UUID(g.BranchID),
		g.PickupStation, string(g.Transport), string(g.Status),
		g.CheckedIn, nullActor(g.CheckedInBy), nullTime(g.CheckedInAt),
		g.CheckInNotes, uuid.UUID(g.RegisteredBy), g.RegisteredAt, g.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert guest: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, guestID domain.GuestID) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE id = $1`,
		uuid.UUID(guestID),
	)
	g, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find guest: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) FindBatch(ctx context.Context, guestIDs []domain.GuestID) ([]*models.Guest, error) {
	if len(guestIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(guestIDs))
	for i, id := range guestIDs {
		ids[i] = uuid.UUID(id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("find guest batch: %w", err)
	}
	defer rows.Close()
	return collectGuests(rows)
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page models.Page) ([]*models.Guest, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guests`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count guests: %w", err)
	}

	query := `SELECT ` + guestColumns + ` FROM guests` + where + ` ORDER BY lower(name)`
	if page.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(page.Limit)
	}
	if page.Offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(page.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	guests, err := collectGuests(rows)
	if err != nil {
		return nil, 0, err
	}
	return guests, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, g *models.Guest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests SET
			name = $2, phone = $3, email = $4, pickup_station = $5,
			transport = $6, status = $7, checked_in = $8, checked_in_by = $9,
			checked_in_at = $10, check_in_notes = $11, updated_at = $12
		WHERE id = $1`,
		uuid.UUID(g.ID), g.Name, g.Phone, g.Email, g.PickupStation,
		string(g.Transport), string(g.Status), g.CheckedIn,
		nullActor(g.CheckedInBy), nullTime(g.CheckedInAt), g.CheckInNotes, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update guest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update guest affected rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CheckIn applies the check-in as a single conditional update. The WHERE
// clause carries the idempotency guard; a zero affected-row count is then
// disambiguated into "absent" vs "already checked in".
func (s *PostgresStore) CheckIn(ctx context.Context, guestID domain.GuestID, by domain.ActorID, at time.Time, notes string) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE guests SET
			checked_in = TRUE, status = $2, checked_in_by = $3,
			checked_in_at = $4, check_in_notes = $5, updated_at = $4
		WHERE id = $1 AND checked_in = FALSE
		RETURNING `+guestColumns,
		uuid.UUID(guestID), string(models.StatusCheckedIn), uuid.UUID(by), at, notes,
	)
	g, err := scanGuest(row)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check in guest: %w", err)
	}

	// No row matched: either the guest doesn't exist or the guard failed.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM guests WHERE id = $1)`,
		uuid.UUID(guestID),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check guest existence: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) Delete(ctx context.Context, guestID domain.GuestID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM guests WHERE id = $1 AND checked_in = FALSE`,
		uuid.UUID(guestID),
	)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete guest affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM guests WHERE id = $1)`,
		uuid.UUID(guestID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check guest existence: %w", err)
	}
	if exists {
		return sentinel.ErrInvalidState
	}
	return sentinel.ErrNotFound
}

func (s *PostgresStore) Stats(ctx context.Context, filter models.Filter) (models.Stats, error) {
	where, args := buildWhere(filter)
	var stats models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE checked_in),
			COUNT(*) FILTER (WHERE checked_in AND transport = 'bus')
		FROM guests`+where, args...,
	).Scan(&stats.Total, &stats.CheckedIn, &stats.Bus)
	if err != nil {
		return models.Stats{}, fmt.Errorf("guest stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, filter models.Filter) (map[models.Status]int, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM guests`+where+` GROUP BY status`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

func (s *PostgresStore) CountByDay(ctx context.Context, filter models.Filter) ([]models.DayCount, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date_trunc('day', registered_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM guests`+where+`
		GROUP BY day ORDER BY day`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count by day: %w", err)
	}
	defer rows.Close()

	var result []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CountByWorker(ctx context.Context, filter models.Filter) ([]models.WorkerCount, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT registered_by, COUNT(*), COUNT(*) FILTER (WHERE checked_in)
		FROM guests`+where+`
		GROUP BY registered_by ORDER BY COUNT(*) DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count by worker: %w", err)
	}
	defer rows.Close()

	var result []models.WorkerCount
	for rows.Next() {
		var wc models.WorkerCount
		var workerID uuid.UUID
		if err := rows.Scan(&workerID, &wc.Total, &wc.CheckedIn); err != nil {
			return nil, fmt.Errorf("scan worker count: %w", err)
		}
		wc.WorkerID = domain.ActorID(workerID)
		result = append(result, wc)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CountByEvent(ctx context.Context, filter models.Filter) ([]models.EventCount, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, COUNT(*),
			COUNT(*) FILTER (WHERE checked_in),
			COUNT(*) FILTER (WHERE transport = 'bus')
		FROM guests`+where+`
		GROUP BY event_id ORDER BY COUNT(*) DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count by event: %w", err)
	}
	defer rows.Close()

	var result []models.EventCount
	for rows.Next() {
		var ec models.EventCount
		var eventID uuid.UUID
		if err := rows.Scan(&eventID, &ec.Total, &ec.CheckedIn, &ec.Bus); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		ec.EventID = domain.EventID(eventID)
		result = append(result, ec)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CountForWorker(ctx context.Context, workerID domain.ActorID) (int, int, error) {
	var registered, checkedIn int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE checked_in)
		FROM guests WHERE registered_by = $1`,
		uuid.UUID(workerID),
	).Scan(&registered, &checkedIn)
	if err != nil {
		return 0, 0, fmt.Errorf("count for worker: %w", err)
	}
	return registered, checkedIn, nil
}

// buildWhere compiles a models.Filter to a WHERE clause. The scope conditions
// come first; caller-supplied filters are ANDed on, so they can only narrow
// the jurisdiction, never broaden it. A scope with no branches compiles to
// FALSE: zero jurisdiction matches nothing even if a caller reaches the store
// without the resolver's explicit rejection.
func buildWhere(filter models.Filter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	switch {
	case filter.Scope.All:
		// unrestricted
	case filter.Scope.StateID != nil:
		conds = append(conds, "state_id = "+arg(uuid.UUID(*filter.Scope.StateID)))
	case len(filter.Scope.BranchIDs) > 0:
		ids := make([]uuid.UUID, len(filter.Scope.BranchIDs))
		for i, b := range filter.Scope.BranchIDs {
			ids[i] = uuid.UUID(b)
		}
		conds = append(conds, "branch_id = ANY("+arg(pq.Array(ids))+")")
	default:
		conds = append(conds, "FALSE")
	}

	if filter.EventID != nil {
		conds = append(conds, "event_id = "+arg(uuid.UUID(*filter.EventID)))
	}
	if filter.RegisteredBy != nil {
		conds = append(conds, "registered_by = "+arg(uuid.UUID(*filter.RegisteredBy)))
	}
	if filter.Transport != nil {
		conds = append(conds, "transport = "+arg(string(*filter.Transport)))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(string(*filter.Status)))
	}
	if filter.CheckedIn != nil {
		conds = append(conds, "checked_in = "+arg(*filter.CheckedIn))
	}
	if filter.From != nil {
		conds = append(conds, "registered_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "registered_at <= "+arg(*filter.To))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		conds = append(conds, "(name ILIKE "+arg(pattern)+
			" OR email ILIKE "+arg(pattern)+
			" OR phone LIKE "+arg(pattern)+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters so a caller-supplied search term
// matches literally, the same way the memory store's substring match does.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanGuest(row *sql.Row) (*models.Guest, error) {
	var (
		g          models.Guest
		id         uuid.UUID
		eventID    uuid.UUID
		stateID    uuid.UUID
		branchID   uuid.UUID
		transport  string
		status     string
		checkedBy  uuid.NullUUID
		checkedAt  sql.NullTime
		registered uuid.UUID
	)
	err := row.Scan(&id, &g.Name, &g.Phone, &g.Email, &eventID, &stateID, &branchID,
		&g.PickupStation, &transport, &status, &g.CheckedIn, &checkedBy, &checkedAt,
		&g.CheckInNotes, &registered, &g.RegisteredAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	assignGuest(&g, id, eventID, stateID, branchID, transport, status, checkedBy, checkedAt, registered)
	return &g, nil
}

func collectGuests(rows *sql.Rows) ([]*models.Guest, error) {
	var guests []*models.Guest
	for rows.Next() {
		var (
			g          models.Guest
			id         uuid.UUID
			eventID    uuid.UUID
			stateID    uuid.UUID
			branchID   uuid.UUID
			transport  string
			status     string
			checkedBy  uuid.NullUUID
			checkedAt  sql.NullTime
			registered uuid.UUID
		)
		err := rows.Scan(&id, &g.Name, &g.Phone, &g.Email, &eventID, &stateID, &branchID,
			&g.PickupStation, &transport, &status, &g.CheckedIn, &checkedBy, &checkedAt,
			&g.CheckInNotes, &registered, &g.RegisteredAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		assignGuest(&g, id, eventID, stateID, branchID, transport, status, checkedBy, checkedAt, registered)
		guests = append(guests, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}
	return guests, nil
}

func assignGuest(g *models.Guest, id, eventID, stateID, branchID uuid.UUID,
	transport, status string, checkedBy uuid.NullUUID, checkedAt sql.NullTime, registered uuid.UUID) {
	g.ID = domain.GuestID(id)
	g.EventID = domain.EventID(eventID)
	g.StateID = domain.StateID(stateID)
	g.BranchID = domain.BranchID(branchID)
	g.Transport = domain.TransportPreference(transport)
	g.Status = models.Status(status)
	if checkedBy.Valid {
		by := domain.ActorID(checkedBy.UUID)
		g.CheckedInBy = &by
	}
	if checkedAt.Valid {
		at := checkedAt.Time
		g.CheckedInAt = &at
	}
	g.RegisteredBy = domain.ActorID(registered)
}

func nullActor(id *domain.ActorID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
