// Package checkin implements the on-site workflow: guest search, the atomic
// check-in operation, event statistics and the registrar dashboard.
package checkin

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"convene/internal/audit"
	"convene/internal/checkin/metrics"
	"convene/internal/event"
	"convene/internal/guest/models"
	guestStore "convene/internal/guest/store"
	"convene/internal/identity"
	"convene/internal/org"
	"convene/internal/policy"
	"convene/internal/scores"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

const (
	searchLimit        = 50
	upcomingEventCount = 5
)

// SearchInput narrows the guest search. ZoneID restricts to one of the
// actor's assigned zones; when omitted the scope is the union of all of them.
type SearchInput struct {
	EventID    domain.EventID
	ZoneID     *domain.ZoneID
	SearchTerm string
}

// GuestSummary carries the display fields a check-in desk needs. Full guest
// records stay behind the admin surface.
type GuestSummary struct {
	ID            domain.GuestID             `json:"id"`
	Name          string                     `json:"name"`
	Phone         string                     `json:"phone"`
	Transport     domain.TransportPreference `json:"transport_preference"`
	PickupStation string                     `json:"pickup_station,omitempty"`
	Status        models.Status              `json:"status"`
	CheckedIn     bool                       `json:"checked_in"`
}

// CheckInInput identifies the guest being checked in.
type CheckInInput struct {
	GuestID domain.GuestID
	EventID domain.EventID
	Notes   string
}

// CheckInResult reports the updated guest. ScoresPropagated is false when the
// downstream score update failed; the check-in itself still stands.
type CheckInResult struct {
	Guest            *models.Guest `json:"guest"`
	ScoresPropagated bool          `json:"scores_propagated"`
}

// Statistics are the check-in counts for one event, optionally zone-scoped.
type Statistics struct {
	TotalGuests     int     `json:"total_guests"`
	CheckedInGuests int     `json:"checked_in_guests"`
	BusGuests       int     `json:"bus_guests"`
	CheckInRate     float64 `json:"check_in_rate"`
	NotCheckedIn    int     `json:"not_checked_in"`
}

// RegistrarSummary identifies the registrar on the dashboard.
type RegistrarSummary struct {
	ID        domain.ActorID `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	ZoneCount int            `json:"zone_count"`
}

// EventStatistics pairs an upcoming event with its zone-scoped counts.
type EventStatistics struct {
	EventID     domain.EventID `json:"event_id"`
	EventName   string         `json:"event_name"`
	Venue       string         `json:"venue"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Statistics  Statistics     `json:"statistics"`
}

// ZoneDashboard holds one assigned zone's statistics tree.
type ZoneDashboard struct {
	ZoneID   domain.ZoneID     `json:"zone_id"`
	ZoneName string            `json:"zone_name"`
	Events   []EventStatistics `json:"events"`
}

// Dashboard is the registrar's per-zone, per-event statistics tree. A
// registrar with no assigned zones gets Assigned=false and an empty tree,
// which the client renders as "not yet assigned" rather than zero activity.
type Dashboard struct {
	Registrar RegistrarSummary `json:"registrar"`
	Assigned  bool             `json:"assigned"`
	Zones     []ZoneDashboard  `json:"zones,omitempty"`
}

// Service orchestrates the check-in workflow.
type Service struct {
	guests     guestStore.Store
	events     event.Store
	actors     identity.Store
	orgs       org.Store
	resolver   *policy.Resolver
	registry   *policy.Registry
	propagator scores.Propagator
	audit      audit.Publisher
	cache      *StatsCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService wires the check-in service. cache may be nil when Redis is not
// configured; statistics are then always computed from the store.
func NewService(
	guests guestStore.Store,
	events event.Store,
	actors identity.Store,
	orgs org.Store,
	resolver *policy.Resolver,
	registry *policy.Registry,
	propagator scores.Propagator,
	auditor audit.Publisher,
	cache *StatsCache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		guests:     guests,
		events:     events,
		actors:     actors,
		orgs:       orgs,
		resolver:   resolver,
		registry:   registry,
		propagator: propagator,
		audit:      auditor,
		cache:      cache,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("convene/checkin"),
	}
}

// SearchGuests returns up to 50 guests for the event within the actor's zone
// jurisdiction, ordered by name.
//
// Errors: CodeNotFound when the event is absent; CodeForbidden when the actor
// has no assigned zones, or names a zone they are not assigned to.
func (s *Service) SearchGuests(ctx context.Context, in SearchInput, actorID domain.ActorID) ([]GuestSummary, error) {
	ctx, span := s.tracer.Start(ctx, "checkin.SearchGuests")
	defer span.End()
	s.metrics.SearchesTotal.Inc()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermCheckInGuests) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot perform check-in")
	}
	if _, err := s.loadEvent(ctx, in.EventID); err != nil {
		return nil, err
	}

	var scope policy.Scope
	if in.ZoneID != nil {
		scope, err = s.resolver.ResolveZoneScope(ctx, actor, *in.ZoneID)
	} else {
		scope, err = s.resolver.ResolveScope(ctx, actor)
	}
	if err != nil {
		return nil, err
	}

	filter := models.Filter{
		Scope:   scope,
		EventID: &in.EventID,
		Search:  in.SearchTerm,
	}
	guests, _, err := s.guests.List(ctx, filter, models.Page{Limit: searchLimit})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search guests")
	}

	summaries := make([]GuestSummary, 0, len(guests))
	for _, g := range guests {
		summaries = append(summaries, GuestSummary{
			ID:            g.ID,
			Name:          g.Name,
			Phone:         g.Phone,
			Transport:     g.Transport,
			PickupStation: g.PickupStation,
			Status:        g.Status,
			CheckedIn:     g.CheckedIn,
		})
	}
	return summaries, nil
}

// CheckInGuest flips the guest to checked-in, then emits an audit event and
// awaits score propagation for the registering worker. The guest update is
// durable before propagation runs; a propagation failure is reported on the
// result, never by undoing the check-in.
//
// Errors: CodeNotFound (event or guest absent), CodeInvalidInput (guest
// registered for a different event), CodeForbidden (registrar's zones do not
// cover the guest's branch), CodeConflict (already checked in).
func (s *Service) CheckInGuest(ctx context.Context, in CheckInInput, registrarID domain.ActorID) (*CheckInResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkin.CheckInGuest",
		trace.WithAttributes(
			attribute.String("guest_id", in.GuestID.String()),
			attribute.String("event_id", in.EventID.String()),
		))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveCheckIn(start)

	result, err := s.checkInGuest(ctx, in, registrarID)
	if err != nil {
		s.metrics.CheckInFailures.Inc()
		return nil, err
	}
	s.metrics.CheckInsTotal.Inc()
	return result, nil
}

func (s *Service) checkInGuest(ctx context.Context, in CheckInInput, registrarID domain.ActorID) (*CheckInResult, error) {
	registrar, err := s.loadActor(ctx, registrarID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(registrar.Role, domain.PermCheckInGuests) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot perform check-in")
	}
	if _, err := s.loadEvent(ctx, in.EventID); err != nil {
		return nil, err
	}

	guest, err := s.guests.FindByID(ctx, in.GuestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load guest")
	}
	if guest.EventID != in.EventID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest is registered for a different event")
	}

	scope, err := s.resolver.ResolveScope(ctx, registrar)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(guest.StateID, guest.BranchID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "guest is outside the registrar's zones")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.guests.CheckIn(ctx, in.GuestID, registrarID, now, in.Notes)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "guest already checked in")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check in guest")
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, in.EventID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate statistics cache",
				"event_id", in.EventID, "error", err)
		}
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Type:      audit.EventGuestCheckedIn,
		ActorID:   registrarID,
		SubjectID: updated.ID.String(),
		At:        now,
		Detail: map[string]string{
			"event_id": in.EventID.String(),
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"guest_id", updated.ID, "error", err)
	}

	result := &CheckInResult{Guest: updated, ScoresPropagated: true}
	if err := s.propagator.UpdateScoresForWorker(ctx, updated.RegisteredBy); err != nil {
		result.ScoresPropagated = false
		s.logger.ErrorContext(ctx, "score propagation failed after check-in",
			"guest_id", updated.ID, "worker_id", updated.RegisteredBy, "error", err)
	}
	return result, nil
}

// Statistics returns the check-in counts for an event within the actor's
// jurisdiction, optionally narrowed to one zone. Results come from the Redis
// cache when fresh; cached entries are keyed by the resolved jurisdiction so
// actors with different scopes never share numbers, and every entry for the
// event is invalidated on check-in.
func (s *Service) Statistics(ctx context.Context, eventID domain.EventID, zoneID *domain.ZoneID, actorID domain.ActorID) (*Statistics, error) {
	ctx, span := s.tracer.Start(ctx, "checkin.Statistics")
	defer span.End()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}

	var scope policy.Scope
	if zoneID != nil {
		scope, err = s.resolver.NarrowToZone(ctx, actor, *zoneID)
	} else {
		scope, err = s.resolver.ResolveScope(ctx, actor)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, eventID, zoneID, scope)
		if err != nil {
			s.logger.WarnContext(ctx, "statistics cache read failed",
				"event_id", eventID, "error", err)
		} else if cached != nil {
			s.metrics.StatsCacheHits.Inc()
			return cached, nil
		}
		s.metrics.StatsCacheMisses.Inc()
	}

	stats, err := s.guests.Stats(ctx, models.Filter{Scope: scope, EventID: &eventID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate statistics")
	}
	computed := computeStatistics(stats)

	if s.cache != nil {
		if err := s.cache.Set(ctx, eventID, zoneID, scope, &computed); err != nil {
			s.logger.WarnContext(ctx, "statistics cache write failed",
				"event_id", eventID, "error", err)
		}
	}
	return &computed, nil
}

// RegistrarDashboard builds the per-zone, per-event statistics tree for the
// registrar's next five upcoming events. Zone and event aggregations fan out
// concurrently; the store is the only shared state underneath.
func (s *Service) RegistrarDashboard(ctx context.Context, registrarID domain.ActorID) (*Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "checkin.RegistrarDashboard")
	defer span.End()

	registrar, err := s.loadActor(ctx, registrarID)
	if err != nil {
		return nil, err
	}
	if registrar.Role != domain.RoleRegistrar {
		return nil, dErrors.New(dErrors.CodeForbidden, "dashboard is only available to registrars")
	}

	dashboard := &Dashboard{
		Registrar: RegistrarSummary{
			ID:        registrar.ID,
			Name:      registrar.Name,
			Email:     registrar.Email,
			ZoneCount: len(registrar.AssignedZones),
		},
	}
	if len(registrar.AssignedZones) == 0 {
		return dashboard, nil
	}
	dashboard.Assigned = true

	zones := make([]*org.Zone, 0, len(registrar.AssignedZones))
	for _, zoneID := range registrar.AssignedZones {
		zone, err := s.orgs.FindZone(ctx, zoneID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Stale assignment to a deleted zone. Skip it, same as
			// jurisdiction resolution does.
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load zone")
		}
		zones = append(zones, zone)
	}

	upcoming, err := s.events.ListUpcoming(ctx, upcomingEventCount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load upcoming events")
	}

	dashboard.Zones = make([]ZoneDashboard, len(zones))
	g, gctx := errgroup.WithContext(ctx)
	for i, zone := range zones {
		dashboard.Zones[i] = ZoneDashboard{
			ZoneID:   zone.ID,
			ZoneName: zone.Name,
			Events:   make([]EventStatistics, len(upcoming)),
		}
		scope := policy.Scope{BranchIDs: []domain.BranchID{zone.BranchID}}
		for j, ev := range upcoming {
			g.Go(func() error {
				stats, err := s.guests.Stats(gctx, models.Filter{Scope: scope, EventID: &ev.ID})
				if err != nil {
					return err
				}
				dashboard.Zones[i].Events[j] = EventStatistics{
					EventID:     ev.ID,
					EventName:   ev.Name,
					Venue:       ev.Venue,
					ScheduledAt: ev.ScheduledAt,
					Statistics:  computeStatistics(stats),
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate dashboard statistics")
	}
	return dashboard, nil
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

// computeStatistics derives the rate fields from raw counts. The rate is 0
// for an empty guest set, never NaN.
func computeStatistics(stats models.Stats) Statistics {
	out := Statistics{
		TotalGuests:     stats.Total,
		CheckedInGuests: stats.CheckedIn,
		BusGuests:       stats.Bus,
		NotCheckedIn:    stats.Total - stats.CheckedIn,
	}
	if stats.Total > 0 {
		rate := float64(stats.CheckedIn) / float64(stats.Total) * 100
		out.CheckInRate = math.Round(rate*100) / 100
	}
	return out
}
