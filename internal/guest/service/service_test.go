package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"convene/internal/audit"
	"convene/internal/event"
	"convene/internal/guest/metrics"
	"convene/internal/guest/models"
	"convene/internal/guest/store"
	"convene/internal/identity"
	"convene/internal/org"
	"convene/internal/policy"
	mockscores "convene/mocks/scores"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/requestcontext"
)

var testMetrics = metrics.New()

type fixture struct {
	guests     *store.InMemoryStore
	events     *event.InMemoryStore
	actors     *identity.InMemoryStore
	orgs       *org.InMemoryStore
	propagator *mockscores.MockPropagator
	audit      *audit.MemoryPublisher
	svc        *Service

	state1  domain.StateID
	state2  domain.StateID
	branch1 domain.BranchID
	branch2 domain.BranchID
	eventID domain.EventID
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		guests:     store.NewInMemoryStore(),
		events:     event.NewInMemoryStore(),
		actors:     identity.NewInMemoryStore(),
		orgs:       org.NewInMemoryStore(),
		propagator: mockscores.NewMockPropagator(ctrl),
		audit:      audit.NewMemoryPublisher(),

		state1:  domain.StateID(uuid.New()),
		state2:  domain.StateID(uuid.New()),
		branch1: domain.BranchID(uuid.New()),
		branch2: domain.BranchID(uuid.New()),
		eventID: domain.EventID(uuid.New()),
		now:     time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC),
	}

	f.orgs.Seed(
		[]org.State{{ID: f.state1, Name: "Lagos"}, {ID: f.state2, Name: "Ogun"}},
		[]org.Branch{
			{ID: f.branch1, StateID: f.state1, Name: "Ikeja"},
			{ID: f.branch2, StateID: f.state2, Name: "Abeokuta"},
		},
		nil,
	)
	f.events.Put(&event.Event{
		ID:          f.eventID,
		Name:        "Annual Convention",
		Venue:       "Main Hall",
		ScheduledAt: f.now.Add(24 * time.Hour),
		Active:      true,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(
		f.guests, f.events, f.actors,
		policy.NewResolver(f.orgs), policy.NewRegistry(),
		f.propagator, f.audit, testMetrics, logger,
	)
	return f
}

func (f *fixture) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), f.now)
}

func (f *fixture) addActor(role domain.Role, stateID *domain.StateID, branchID *domain.BranchID) domain.ActorID {
	id := domain.ActorID(uuid.New())
	f.actors.Put(&identity.Actor{
		ID:       id,
		Name:     string(role),
		Email:    id.String() + "@example.com",
		Role:     role,
		StateID:  stateID,
		BranchID: branchID,
		Active:   true,
	})
	return id
}

func (f *fixture) addGuest(name string, stateID domain.StateID, branchID domain.BranchID) *models.Guest {
	g, err := models.NewGuest(
		domain.GuestID(uuid.New()),
		name, "+234-"+uuid.NewString()[:8], "",
		f.eventID, stateID, branchID,
		domain.TransportPrivate, "",
		domain.ActorID(uuid.New()), f.now.Add(-48*time.Hour),
	)
	if err != nil {
		panic(err)
	}
	if err := f.guests.Insert(context.Background(), g); err != nil {
		panic(err)
	}
	return g
}

func TestList(t *testing.T) {
	t.Run("state admin only sees guests in their state", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		f.addGuest("In State", f.state1, f.branch1)
		f.addGuest("Out Of State", f.state2, f.branch2)

		got, err := f.svc.List(f.ctx(), admin, ListInput{})

		require.NoError(t, err)
		require.Len(t, got.Guests, 1)
		assert.Equal(t, "In State", got.Guests[0].Name)
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, 1, got.Summary.Total)
	})

	t.Run("super admin sees everything with summary counts", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		f.addGuest("One", f.state1, f.branch1)
		f.addGuest("Two", f.state2, f.branch2)

		got, err := f.svc.List(f.ctx(), admin, ListInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, got.Total)
		assert.Equal(t, 2, got.Summary.Total)
	})

	t.Run("paging bounds are applied", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		for i := 0; i < 3; i++ {
			f.addGuest("Guest", f.state1, f.branch1)
		}

		got, err := f.svc.List(f.ctx(), admin, ListInput{Page: models.Page{Limit: 2}})

		require.NoError(t, err)
		assert.Len(t, got.Guests, 2)
		assert.Equal(t, 3, got.Total)
	})
}

func TestRegister(t *testing.T) {
	input := func(f *fixture) RegisterInput {
		return RegisterInput{
			Name:      "Amina Bello",
			Phone:     "+2348012345678",
			EventID:   f.eventID,
			StateID:   f.state1,
			BranchID:  f.branch1,
			Transport: domain.TransportPrivate,
		}
	}

	t.Run("worker registers a guest at their own branch", func(t *testing.T) {
		f := newFixture(t)
		worker := f.addActor(domain.RoleWorker, &f.state1, &f.branch1)
		f.propagator.EXPECT().UpdateScoresForWorker(gomock.Any(), worker).Return(nil)

		result, err := f.svc.Register(f.ctx(), worker, input(f))

		require.NoError(t, err)
		assert.Equal(t, models.StatusInvited, result.Guest.Status)
		assert.False(t, result.Guest.CheckedIn)
		assert.Equal(t, worker, result.Guest.RegisteredBy)
		assert.True(t, result.ScoresPropagated)

		events := f.audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventGuestRegistered, events[0].Type)
	})

	t.Run("worker cannot register outside their branch", func(t *testing.T) {
		f := newFixture(t)
		worker := f.addActor(domain.RoleWorker, &f.state1, &f.branch1)
		in := input(f)
		in.StateID = f.state2
		in.BranchID = f.branch2

		_, err := f.svc.Register(f.ctx(), worker, in)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("duplicate phone for the same event is a conflict", func(t *testing.T) {
		f := newFixture(t)
		worker := f.addActor(domain.RoleWorker, &f.state1, &f.branch1)
		f.propagator.EXPECT().UpdateScoresForWorker(gomock.Any(), worker).Return(nil)

		_, err := f.svc.Register(f.ctx(), worker, input(f))
		require.NoError(t, err)

		_, err = f.svc.Register(f.ctx(), worker, input(f))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("bus transport requires a pickup station", func(t *testing.T) {
		f := newFixture(t)
		worker := f.addActor(domain.RoleWorker, &f.state1, &f.branch1)
		in := input(f)
		in.Transport = domain.TransportBus

		_, err := f.svc.Register(f.ctx(), worker, in)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("past events are closed for registration", func(t *testing.T) {
		f := newFixture(t)
		worker := f.addActor(domain.RoleWorker, &f.state1, &f.branch1)
		past := &event.Event{
			ID:          domain.EventID(uuid.New()),
			Name:        "Past Event",
			ScheduledAt: f.now.Add(-time.Hour),
			Active:      true,
		}
		f.events.Put(past)
		in := input(f)
		in.EventID = past.ID

		_, err := f.svc.Register(f.ctx(), worker, in)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("applies a listed transition", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Amina", f.state1, f.branch1)

		updated, err := f.svc.UpdateStatus(f.ctx(), admin, guest.ID, models.StatusNoShow)

		require.NoError(t, err)
		assert.Equal(t, models.StatusNoShow, updated.Status)
	})

	t.Run("rejects transitions not in the table", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Amina", f.state1, f.branch1)

		_, err := f.svc.UpdateStatus(f.ctx(), admin, guest.ID, models.StatusConfirmed)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("checked_in is unreachable through status updates", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Amina", f.state1, f.branch1)

		_, err := f.svc.UpdateStatus(f.ctx(), admin, guest.ID, models.StatusCheckedIn)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("out-of-state guest is forbidden for a state admin", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Elsewhere", f.state2, f.branch2)

		_, err := f.svc.UpdateStatus(f.ctx(), admin, guest.ID, models.StatusNoShow)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes a guest in jurisdiction", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Amina", f.state1, f.branch1)

		require.NoError(t, f.svc.Delete(f.ctx(), admin, guest.ID))

		_, err := f.guests.FindByID(context.Background(), guest.ID)
		require.Error(t, err)
	})

	t.Run("checked-in guests cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		guest := f.addGuest("Amina", f.state1, f.branch1)
		_, err := f.guests.CheckIn(context.Background(), guest.ID, domain.ActorID(uuid.New()), f.now, "")
		require.NoError(t, err)

		err = f.svc.Delete(f.ctx(), admin, guest.ID)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("zonal admin lacks the delete permission", func(t *testing.T) {
		f := newFixture(t)
		zonal := domain.ActorID(uuid.New())
		f.actors.Put(&identity.Actor{
			ID:     zonal,
			Name:   "Zonal",
			Email:  "zonal@example.com",
			Role:   domain.RoleZonalAdmin,
			Active: true,
		})
		guest := f.addGuest("Amina", f.state1, f.branch1)

		err := f.svc.Delete(f.ctx(), zonal, guest.ID)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestBulkOperation(t *testing.T) {
	t.Run("delete skips checked-in guests and reports them", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		g1 := f.addGuest("Deletable", f.state1, f.branch1)
		g2 := f.addGuest("Checked In", f.state1, f.branch1)
		_, err := f.guests.CheckIn(context.Background(), g2.ID, domain.ActorID(uuid.New()), f.now, "")
		require.NoError(t, err)

		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{g1.ID, g2.ID},
			Op:       BulkDelete,
		})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.Processed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, g2.ID, result.Errors[0].GuestID)
		assert.Equal(t, "cannot delete checked-in guest", result.Errors[0].Message)

		_, err = f.guests.FindByID(context.Background(), g1.ID)
		require.Error(t, err, "g1 should be removed")
		stored, err := f.guests.FindByID(context.Background(), g2.ID)
		require.NoError(t, err, "g2 should be intact")
		assert.True(t, stored.CheckedIn)
	})

	t.Run("out-of-jurisdiction ids fail per item without aborting the batch", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleStateAdmin, &f.state1, nil)
		inScope1 := f.addGuest("One", f.state1, f.branch1)
		smuggled := f.addGuest("Smuggled", f.state2, f.branch2)
		inScope2 := f.addGuest("Two", f.state1, f.branch1)

		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{inScope1.ID, smuggled.ID, inScope2.ID},
			Op:       BulkStatusChange,
			Data:     BulkData{Status: statusPtr(models.StatusNoShow)},
		})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 2, result.Processed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, smuggled.ID, result.Errors[0].GuestID)

		stored, ferr := f.guests.FindByID(context.Background(), smuggled.ID)
		require.NoError(t, ferr)
		assert.Equal(t, models.StatusInvited, stored.Status, "smuggled id must be unmodified")
	})

	t.Run("repeated ids count their guest once", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		g := f.addGuest("Repeated", f.state1, f.branch1)

		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{g.ID, g.ID, g.ID},
			Op:       BulkStatusChange,
			Data:     BulkData{Status: statusPtr(models.StatusNoShow)},
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.Processed)
		assert.Empty(t, result.Errors)

		stored, err := f.guests.FindByID(context.Background(), g.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNoShow, stored.Status)
	})

	t.Run("missing ids are reported per item", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		g := f.addGuest("Exists", f.state1, f.branch1)
		missing := domain.GuestID(uuid.New())

		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{g.ID, missing},
			Op:       BulkStatusChange,
			Data:     BulkData{Status: statusPtr(models.StatusNoShow)},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, missing, result.Errors[0].GuestID)
		assert.Equal(t, "guest not found", result.Errors[0].Message)
	})

	t.Run("assign_pickup only applies to bus guests", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		private := f.addGuest("Private", f.state1, f.branch1)

		station := "Central Park"
		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{private.ID},
			Op:       BulkAssignPickup,
			Data:     BulkData{PickupStation: &station},
		})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Zero(t, result.Processed)
	})

	t.Run("success is true only when every item applied", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		g1 := f.addGuest("One", f.state1, f.branch1)
		g2 := f.addGuest("Two", f.state1, f.branch1)

		result, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{g1.ID, g2.ID},
			Op:       BulkStatusChange,
			Data:     BulkData{Status: statusPtr(models.StatusNoShow)},
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Processed)
		assert.Empty(t, result.Errors)

		events := f.audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventBulkOperation, events[0].Type)
		assert.Equal(t, "2", events[0].Detail["processed"])
	})

	t.Run("unsupported operation is rejected up front", func(t *testing.T) {
		f := newFixture(t)
		admin := f.addActor(domain.RoleSuperAdmin, nil, nil)
		g := f.addGuest("One", f.state1, f.branch1)

		_, err := f.svc.BulkOperation(f.ctx(), admin, BulkInput{
			GuestIDs: []domain.GuestID{g.ID},
			Op:       BulkOp("promote"),
		})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func statusPtr(s models.Status) *models.Status { return &s }
