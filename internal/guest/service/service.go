// Package service implements the administrative guest operations: scoped
// listing, registration, status changes, deletion and bulk operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"convene/internal/audit"
	"convene/internal/event"
	"convene/internal/guest/metrics"
	"convene/internal/guest/models"
	"convene/internal/guest/store"
	"convene/internal/identity"
	"convene/internal/policy"
	"convene/internal/scores"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListInput carries the caller-supplied filters. They intersect with the
// actor's jurisdiction scope and can only narrow it.
type ListInput struct {
	EventID      *domain.EventID
	RegisteredBy *domain.ActorID
	Transport    *domain.TransportPreference
	Status       *models.Status
	CheckedIn    *bool
	From         *time.Time
	To           *time.Time
	Search       string
	Page         models.Page
}

// ListResult is one page of guests plus the summary counts over the whole
// filtered set.
type ListResult struct {
	Guests  []*models.Guest `json:"guests"`
	Total   int             `json:"total"`
	Summary models.Stats    `json:"summary"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// RegisterInput is a new guest registration.
type RegisterInput struct {
	Name          string
	Phone         string
	Email         string
	EventID       domain.EventID
	StateID       domain.StateID
	BranchID      domain.BranchID
	Transport     domain.TransportPreference
	PickupStation string
}

// RegisterResult reports the stored guest. ScoresPropagated is false when the
// downstream score update failed; the registration itself still stands.
type RegisterResult struct {
	Guest            *models.Guest `json:"guest"`
	ScoresPropagated bool          `json:"scores_propagated"`
}

// Service orchestrates administrative guest operations.
type Service struct {
	guests     store.Store
	events     event.Store
	actors     identity.Store
	resolver   *policy.Resolver
	registry   *policy.Registry
	propagator scores.Propagator
	audit      audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewService(
	guests store.Store,
	events event.Store,
	actors identity.Store,
	resolver *policy.Resolver,
	registry *policy.Registry,
	propagator scores.Propagator,
	auditor audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		guests:     guests,
		events:     events,
		actors:     actors,
		resolver:   resolver,
		registry:   registry,
		propagator: propagator,
		audit:      auditor,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("convene/guest"),
	}
}

// List returns a page of guests within the actor's jurisdiction, plus summary
// counts over everything the filter matches.
func (s *Service) List(ctx context.Context, actorID domain.ActorID, in ListInput) (*ListResult, error) {
	ctx, span := s.tracer.Start(ctx, "guest.List")
	defer span.End()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermGuestsRead) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot read guests")
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := models.Filter{
		EventID:      in.EventID,
		RegisteredBy: in.RegisteredBy,
		Transport:    in.Transport,
		Status:       in.Status,
		CheckedIn:    in.CheckedIn,
		From:         in.From,
		To:           in.To,
		Search:       in.Search,
	}.Narrow(scope)
	page := boundPage(in.Page)

	guests, total, err := s.guests.List(ctx, filter, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list guests")
	}
	summary, err := s.guests.Stats(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize guests")
	}
	return &ListResult{
		Guests:  guests,
		Total:   total,
		Summary: summary,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}, nil
}

// Register stores a new guest in the invited state and propagates scores for
// the registering actor. Workers may only register guests at their own branch;
// admins anywhere inside their jurisdiction.
//
// Errors: CodeConflict when the phone is already registered for the event,
// CodeInvalidInput for transport/pickup violations or a closed event,
// CodeForbidden when the placement is outside the actor's jurisdiction.
func (s *Service) Register(ctx context.Context, actorID domain.ActorID, in RegisterInput) (*RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "guest.Register")
	defer span.End()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermGuestsWrite) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot register guests")
	}
	if err := s.authorizePlacement(ctx, actor, in.StateID, in.BranchID); err != nil {
		return nil, err
	}

	ev, err := s.loadEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if !ev.Upcoming(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event is not open for registration")
	}

	guest, err := models.NewGuest(
		domain.GuestID(uuid.New()),
		in.Name, in.Phone, in.Email,
		in.EventID, in.StateID, in.BranchID,
		in.Transport, in.PickupStation,
		actorID, now,
	)
	if err != nil {
		return nil, err
	}

	if err := s.guests.Insert(ctx, guest); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RegistrationConflicts.Inc()
			return nil, dErrors.New(dErrors.CodeConflict, "a guest with this phone is already registered for this event")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register guest")
	}
	s.metrics.RegistrationsTotal.Inc()

	s.emit(ctx, audit.Event{
		Type:      audit.EventGuestRegistered,
		ActorID:   actorID,
		SubjectID: guest.ID.String(),
		At:        now,
		Detail: map[string]string{
			"event_id":  in.EventID.String(),
			"branch_id": in.BranchID.String(),
		},
	})

	result := &RegisterResult{Guest: guest, ScoresPropagated: true}
	if err := s.propagator.UpdateScoresForWorker(ctx, actorID); err != nil {
		result.ScoresPropagated = false
		s.logger.ErrorContext(ctx, "score propagation failed after registration",
			"guest_id", guest.ID, "worker_id", actorID, "error", err)
	}
	return result, nil
}

// UpdateStatus applies one lifecycle transition. The checked_in state is only
// reachable through the check-in workflow, which also sets the check-in
// attribution fields; this path rejects it to keep the status/flag invariant.
func (s *Service) UpdateStatus(ctx context.Context, actorID domain.ActorID, guestID domain.GuestID, next models.Status) (*models.Guest, error) {
	ctx, span := s.tracer.Start(ctx, "guest.UpdateStatus")
	defer span.End()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermGuestsWrite) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot modify guests")
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	guest, err := s.loadGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(guest.StateID, guest.BranchID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "guest is outside your jurisdiction")
	}
	if next == models.StatusCheckedIn {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guests are checked in through the check-in workflow")
	}

	ev, err := s.loadEvent(ctx, guest.EventID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := guest.CanEdit(ev.ScheduledAt, now); err != nil {
		return nil, err
	}
	if err := models.ValidateStatusTransition(guest.Status, next); err != nil {
		return nil, err
	}

	prev := guest.Status
	guest.Status = next
	guest.UpdatedAt = now
	if err := s.guests.Update(ctx, guest); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update guest")
	}
	s.metrics.StatusChangesTotal.Inc()

	s.emit(ctx, audit.Event{
		Type:      audit.EventGuestStatusChange,
		ActorID:   actorID,
		SubjectID: guest.ID.String(),
		At:        now,
		Detail: map[string]string{
			"from": prev.String(),
			"to":   next.String(),
		},
	})
	return guest, nil
}

// Delete removes a guest. Checked-in guests are refused both here and at the
// store level, so the rule holds under concurrent check-in.
func (s *Service) Delete(ctx context.Context, actorID domain.ActorID, guestID domain.GuestID) error {
	ctx, span := s.tracer.Start(ctx, "guest.Delete")
	defer span.End()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermGuestsDelete) {
		return dErrors.New(dErrors.CodeForbidden, "role cannot delete guests")
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return err
	}

	guest, err := s.loadGuest(ctx, guestID)
	if err != nil {
		return err
	}
	if !scope.Covers(guest.StateID, guest.BranchID) {
		return dErrors.New(dErrors.CodeForbidden, "guest is outside your jurisdiction")
	}
	if err := guest.CanDelete(); err != nil {
		return err
	}

	if err := s.guests.Delete(ctx, guestID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "cannot delete checked-in guest")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "guest not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete guest")
		}
	}
	s.metrics.DeletionsTotal.Inc()

	s.emit(ctx, audit.Event{
		Type:      audit.EventGuestDeleted,
		ActorID:   actorID,
		SubjectID: guestID.String(),
		At:        requestcontext.Now(ctx),
	})
	return nil
}

// authorizePlacement decides whether the actor may create a guest at the given
// tree position. Workers are pinned to their own branch; everyone else goes
// through jurisdiction resolution.
func (s *Service) authorizePlacement(ctx context.Context, actor *identity.Actor, stateID domain.StateID, branchID domain.BranchID) error {
	if actor.Role == domain.RoleWorker {
		if actor.BranchID == nil || actor.StateID == nil {
			return dErrors.New(dErrors.CodeForbidden, "worker has no branch assigned")
		}
		if *actor.BranchID != branchID || *actor.StateID != stateID {
			return dErrors.New(dErrors.CodeForbidden, "workers may only register guests at their own branch")
		}
		return nil
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return err
	}
	if !scope.Covers(stateID, branchID) {
		return dErrors.New(dErrors.CodeForbidden, "placement is outside your jurisdiction")
	}
	return nil
}

func (s *Service) loadActor(ctx context.Context, actorID domain.ActorID) (*identity.Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	if !actor.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "actor is deactivated")
	}
	return actor, nil
}

func (s *Service) loadGuest(ctx context.Context, guestID domain.GuestID) (*models.Guest, error) {
	guest, err := s.guests.FindByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load guest")
	}
	return guest, nil
}

func (s *Service) loadEvent(ctx context.Context, eventID domain.EventID) (*event.Event, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return ev, nil
}

// emit publishes an audit event, logging failures rather than surfacing them.
func (s *Service) emit(ctx context.Context, e audit.Event) {
	if err := s.audit.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"type", string(e.Type), "subject_id", e.SubjectID, "error", err)
	}
}

func boundPage(p models.Page) models.Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
