// Package analytics aggregates guest data per jurisdiction. Every operation
// returns counts derived in the store, never raw guest lists, so payloads stay
// bounded regardless of guest volume.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"convene/internal/guest/models"
	"convene/internal/guest/store"
	"convene/internal/identity"
	"convene/internal/policy"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

const maxTrendDays = 365

// Basic is the headline counts for the actor's jurisdiction.
type Basic struct {
	TotalGuests     int            `json:"total_guests"`
	CheckedInGuests int            `json:"checked_in_guests"`
	CheckInRate     float64        `json:"check_in_rate"`
	ByStatus        map[string]int `json:"by_status"`
}

// TrendPoint is one day's registrations.
type TrendPoint struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// WorkerPerformance ranks registering workers by volume and conversion.
type WorkerPerformance struct {
	WorkerID    domain.ActorID `json:"worker_id"`
	Registered  int            `json:"registered"`
	CheckedIn   int            `json:"checked_in"`
	CheckInRate float64        `json:"check_in_rate"`
}

// EventSummary is the per-event rollup with transport usage.
type EventSummary struct {
	EventID      domain.EventID `json:"event_id"`
	TotalGuests  int            `json:"total_guests"`
	CheckedIn    int            `json:"checked_in"`
	BusGuests    int            `json:"bus_guests"`
	BusUsageRate float64        `json:"bus_usage_rate"`
	CheckInRate  float64        `json:"check_in_rate"`
}

// Service resolves the actor's jurisdiction and delegates the grouping to the
// guest store.
type Service struct {
	guests   store.Store
	actors   identity.Store
	resolver *policy.Resolver
	registry *policy.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(
	guests store.Store,
	actors identity.Store,
	resolver *policy.Resolver,
	registry *policy.Registry,
	logger *slog.Logger,
) *Service {
	return &Service{
		guests:   guests,
		actors:   actors,
		resolver: resolver,
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer("convene/analytics"),
	}
}

// Basic returns the headline counts, optionally narrowed to one event.
func (s *Service) Basic(ctx context.Context, actorID domain.ActorID, eventID *domain.EventID) (*Basic, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Basic")
	defer span.End()

	filter, err := s.scopedFilter(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}

	stats, err := s.guests.Stats(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate guests")
	}
	byStatus, err := s.guests.CountByStatus(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to group by status")
	}

	out := &Basic{
		TotalGuests:     stats.Total,
		CheckedInGuests: stats.CheckedIn,
		CheckInRate:     rate(stats.CheckedIn, stats.Total),
		ByStatus:        make(map[string]int, len(byStatus)),
	}
	for status, count := range byStatus {
		out.ByStatus[status.String()] = count
	}
	return out, nil
}

// Trends returns daily registration counts over the trailing window.
//
// Errors: CodeInvalidInput when days is outside [1, 365].
func (s *Service) Trends(ctx context.Context, actorID domain.ActorID, days int) ([]TrendPoint, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Trends")
	defer span.End()

	if days < 1 || days > maxTrendDays {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "days must be between 1 and %d", maxTrendDays)
	}
	filter, err := s.scopedFilter(ctx, actorID, nil)
	if err != nil {
		return nil, err
	}
	from := requestcontext.Now(ctx).UTC().AddDate(0, 0, -days)
	filter.From = &from

	counts, err := s.guests.CountByDay(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to group by day")
	}
	points := make([]TrendPoint, 0, len(counts))
	for _, c := range counts {
		points = append(points, TrendPoint{Day: c.Day, Count: c.Count})
	}
	return points, nil
}

// WorkerPerformance groups the jurisdiction's guests by registering worker.
func (s *Service) WorkerPerformance(ctx context.Context, actorID domain.ActorID, eventID *domain.EventID) ([]WorkerPerformance, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.WorkerPerformance")
	defer span.End()

	filter, err := s.scopedFilter(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}

	counts, err := s.guests.CountByWorker(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to group by worker")
	}
	out := make([]WorkerPerformance, 0, len(counts))
	for _, c := range counts {
		out = append(out, WorkerPerformance{
			WorkerID:    c.WorkerID,
			Registered:  c.Total,
			CheckedIn:   c.CheckedIn,
			CheckInRate: rate(c.CheckedIn, c.Total),
		})
	}
	return out, nil
}

// EventSummary groups the jurisdiction's guests by event.
func (s *Service) EventSummary(ctx context.Context, actorID domain.ActorID) ([]EventSummary, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.EventSummary")
	defer span.End()

	filter, err := s.scopedFilter(ctx, actorID, nil)
	if err != nil {
		return nil, err
	}

	counts, err := s.guests.CountByEvent(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to group by event")
	}
	out := make([]EventSummary, 0, len(counts))
	for _, c := range counts {
		out = append(out, EventSummary{
			EventID:      c.EventID,
			TotalGuests:  c.Total,
			CheckedIn:    c.CheckedIn,
			BusGuests:    c.Bus,
			BusUsageRate: rate(c.Bus, c.Total),
			CheckInRate:  rate(c.CheckedIn, c.Total),
		})
	}
	return out, nil
}

// scopedFilter resolves the actor's jurisdiction and applies the optional
// event narrowing.
func (s *Service) scopedFilter(ctx context.Context, actorID domain.ActorID, eventID *domain.EventID) (models.Filter, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Filter{}, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return models.Filter{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	if !actor.Active {
		return models.Filter{}, dErrors.New(dErrors.CodeForbidden, "actor is deactivated")
	}
	if !s.registry.HasPermission(actor.Role, domain.PermAnalyticsRead) {
		return models.Filter{}, dErrors.New(dErrors.CodeForbidden, "role cannot read analytics")
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return models.Filter{}, err
	}
	return models.Filter{EventID: eventID}.Narrow(scope), nil
}

// rate is checked/total as a percentage rounded to 2 decimals, 0 when empty.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
