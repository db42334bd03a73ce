//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convene/internal/guest/models"
	"convene/internal/policy"
	"convene/pkg/domain"
	"convene/pkg/platform/sentinel"
	"convene/pkg/testutil/containers"
)

type pgFixture struct {
	store *PostgresStore
	pg    *containers.PostgresContainer

	stateID  domain.StateID
	branchID domain.BranchID
	eventID  domain.EventID
	workerID domain.ActorID
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()

	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	f := &pgFixture{
		store:    NewPostgres(pg.DB),
		pg:       pg,
		stateID:  domain.StateID(uuid.New()),
		branchID: domain.BranchID(uuid.New()),
		eventID:  domain.EventID(uuid.New()),
		workerID: domain.ActorID(uuid.New()),
	}

	_, err := pg.DB.ExecContext(ctx,
		`INSERT INTO states (id, name) VALUES ($1, 'Lagos')`, uuid.UUID(f.stateID))
	require.NoError(t, err)
	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO branches (id, state_id, name) VALUES ($1, $2, 'Ikeja')`,
		uuid.UUID(f.branchID), uuid.UUID(f.stateID))
	require.NoError(t, err)
	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO events (id, name, venue, scheduled_at, active)
		 VALUES ($1, 'Annual Convention', 'Main Hall', $2, TRUE)`,
		uuid.UUID(f.eventID), time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return f
}

func (f *pgFixture) seed(t *testing.T, name, phone string) *models.Guest {
	t.Helper()
	g, err := models.NewGuest(
		domain.GuestID(uuid.New()),
		name, phone, "",
		f.eventID, f.stateID, f.branchID,
		domain.TransportPrivate, "",
		f.workerID,
		time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, f.store.Insert(context.Background(), g))
	return g
}

func (f *pgFixture) branchScope() policy.Scope {
	return policy.Scope{BranchIDs: []domain.BranchID{f.branchID}}
}

func TestPostgresInsertUniqueViolation(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	f.seed(t, "Amina", "+234801")

	dup, err := models.NewGuest(
		domain.GuestID(uuid.New()),
		"Other Amina", "+234801", "",
		f.eventID, f.stateID, f.branchID,
		domain.TransportPrivate, "",
		f.workerID, time.Now(),
	)
	require.NoError(t, err)
	assert.ErrorIs(t, f.store.Insert(ctx, dup), sentinel.ErrConflict)
}

func TestPostgresCheckInConcurrency(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	g := f.seed(t, "Amina", "+234801")

	const attempts = 16
	wins := make(chan struct{}, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.CheckIn(ctx, g.ID, f.workerID, time.Now().UTC(), "")
			if err == nil {
				wins <- struct{}{}
			} else {
				assert.ErrorIs(t, err, sentinel.ErrInvalidState)
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent check-in should win")

	got, err := f.store.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckedIn)
	assert.Equal(t, models.StatusCheckedIn, got.Status)
}

func TestPostgresCheckInMissingGuest(t *testing.T) {
	f := newPGFixture(t)
	_, err := f.store.CheckIn(context.Background(),
		domain.GuestID(uuid.New()), f.workerID, time.Now(), "")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresDeleteRefusesCheckedIn(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	g := f.seed(t, "Amina", "+234801")

	_, err := f.store.CheckIn(ctx, g.ID, f.workerID, time.Now().UTC(), "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.store.Delete(ctx, g.ID), sentinel.ErrInvalidState)

	// Still present.
	_, err = f.store.FindByID(ctx, g.ID)
	require.NoError(t, err)
}

func TestPostgresListScoping(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	f.seed(t, "Amina", "+234801")
	f.seed(t, "Bola", "+234802")

	t.Run("empty scope matches nothing", func(t *testing.T) {
		guests, total, err := f.store.List(ctx,
			models.Filter{Scope: policy.Scope{}}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, guests)
		assert.Zero(t, total)
	})

	t.Run("branch scope admits branch guests in name order", func(t *testing.T) {
		guests, total, err := f.store.List(ctx,
			models.Filter{Scope: f.branchScope()}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, guests, 2)
		assert.Equal(t, "Amina", guests[0].Name)
		assert.Equal(t, "Bola", guests[1].Name)
	})

	t.Run("state scope admits the same guests", func(t *testing.T) {
		stateID := f.stateID
		_, total, err := f.store.List(ctx,
			models.Filter{Scope: policy.Scope{StateID: &stateID}}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("foreign branch scope excludes them", func(t *testing.T) {
		other := domain.BranchID(uuid.New())
		_, total, err := f.store.List(ctx,
			models.Filter{Scope: policy.Scope{BranchIDs: []domain.BranchID{other}}},
			models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("search narrows within scope", func(t *testing.T) {
		guests, total, err := f.store.List(ctx,
			models.Filter{Scope: f.branchScope(), Search: "bol"}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, guests, 1)
		assert.Equal(t, "Bola", guests[0].Name)
	})

	t.Run("wildcard characters in the term match literally", func(t *testing.T) {
		f.seed(t, "50% Club", "+234899")

		guests, total, err := f.store.List(ctx,
			models.Filter{Scope: f.branchScope(), Search: "50%"}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, guests, 1)
		assert.Equal(t, "50% Club", guests[0].Name)

		// A bare "%" is a literal character here, not match-anything.
		_, total, err = f.store.List(ctx,
			models.Filter{Scope: f.branchScope(), Search: "%"}, models.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestPostgresStats(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	bus, err := models.NewGuest(
		domain.GuestID(uuid.New()),
		"Chinedu", "+234803", "",
		f.eventID, f.stateID, f.branchID,
		domain.TransportBus, "Ikeja Park",
		f.workerID, time.Now(),
	)
	require.NoError(t, err)
	require.NoError(t, f.store.Insert(ctx, bus))
	f.seed(t, "Amina", "+234801")

	_, err = f.store.CheckIn(ctx, bus.ID, f.workerID, time.Now().UTC(), "")
	require.NoError(t, err)

	stats, err := f.store.Stats(ctx, models.Filter{Scope: f.branchScope()})
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 2, CheckedIn: 1, Bus: 1}, stats)
}

func TestPostgresCountForWorker(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	g1 := f.seed(t, "Amina", "+234801")
	f.seed(t, "Bola", "+234802")

	_, err := f.store.CheckIn(ctx, g1.ID, f.workerID, time.Now().UTC(), "")
	require.NoError(t, err)

	registered, checkedIn, err := f.store.CountForWorker(ctx, f.workerID)
	require.NoError(t, err)
	assert.Equal(t, 2, registered)
	assert.Equal(t, 1, checkedIn)
}
