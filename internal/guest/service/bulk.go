package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"convene/internal/audit"
	"convene/internal/guest/models"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

// BulkOp is the operation applied to every guest in a batch.
type BulkOp string

const (
	BulkUpdate       BulkOp = "update"
	BulkDelete       BulkOp = "delete"
	BulkStatusChange BulkOp = "status_change"
	BulkAssignPickup BulkOp = "assign_pickup"
)

func (op BulkOp) valid() bool {
	switch op {
	case BulkUpdate, BulkDelete, BulkStatusChange, BulkAssignPickup:
		return true
	}
	return false
}

// BulkData carries the per-operation payload. Nil fields are left untouched
// by update; status_change requires Status, assign_pickup requires
// PickupStation.
type BulkData struct {
	Name          *string                     `json:"name,omitempty"`
	Email         *string                     `json:"email,omitempty"`
	Transport     *domain.TransportPreference `json:"transport_preference,omitempty"`
	PickupStation *string                     `json:"pickup_station,omitempty"`
	Status        *models.Status              `json:"status,omitempty"`
}

// BulkInput targets a set of guests with one operation.
type BulkInput struct {
	GuestIDs []domain.GuestID
	Op       BulkOp
	Data     BulkData
}

// ItemError reports why one guest in the batch was skipped.
type ItemError struct {
	GuestID domain.GuestID `json:"guest_id"`
	Message string         `json:"message"`
}

// BulkResult reports partial-failure semantics: Processed counts the guests
// the operation was applied to, Errors the ones it skipped. Success is true
// only when nothing was skipped.
type BulkResult struct {
	Success   bool        `json:"success"`
	Processed int         `json:"processed"`
	Errors    []ItemError `json:"errors"`
}

// BulkOperation applies one operation across a batch of guests with per-item
// authorization. The batch is loaded once, but jurisdiction is re-derived per
// guest from the actor's scope: batch membership is never trusted, so an
// out-of-jurisdiction id smuggled into an otherwise-valid batch fails only
// that item. One bad id must not abort the rest of the batch.
func (s *Service) BulkOperation(ctx context.Context, actorID domain.ActorID, in BulkInput) (*BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "guest.BulkOperation")
	defer span.End()

	if !in.Op.valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unsupported bulk operation %q", string(in.Op))
	}
	if len(in.GuestIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest ids are required")
	}

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.registry.HasPermission(actor.Role, domain.PermGuestsBulk) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot perform bulk operations")
	}
	if in.Op == BulkDelete && !s.registry.HasPermission(actor.Role, domain.PermGuestsDelete) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot delete guests")
	}
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	// Duplicate ids in the request target one guest; apply and count each
	// guest once so processed+failed adds up to distinct guests.
	guestIDs := make([]domain.GuestID, 0, len(in.GuestIDs))
	seen := make(map[domain.GuestID]struct{}, len(in.GuestIDs))
	for _, id := range in.GuestIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		guestIDs = append(guestIDs, id)
	}

	batch, err := s.guests.FindBatch(ctx, guestIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load guests")
	}
	byID := make(map[domain.GuestID]*models.Guest, len(batch))
	for _, g := range batch {
		byID[g.ID] = g
	}

	result := &BulkResult{}
	for _, guestID := range guestIDs {
		guest, ok := byID[guestID]
		if !ok {
			result.Errors = append(result.Errors, ItemError{GuestID: guestID, Message: "guest not found"})
			continue
		}
		if !scope.Covers(guest.StateID, guest.BranchID) {
			result.Errors = append(result.Errors, ItemError{GuestID: guestID, Message: "guest outside your jurisdiction"})
			continue
		}
		if err := s.applyBulkItem(ctx, guest, in.Op, in.Data); err != nil {
			result.Errors = append(result.Errors, ItemError{GuestID: guestID, Message: dErrors.Message(err)})
			continue
		}
		result.Processed++
	}
	result.Success = len(result.Errors) == 0

	s.metrics.BulkOperationsTotal.WithLabelValues(string(in.Op)).Inc()
	if n := len(result.Errors); n > 0 {
		s.metrics.BulkItemFailures.Add(float64(n))
	}

	s.emit(ctx, audit.Event{
		Type:      audit.EventBulkOperation,
		ActorID:   actorID,
		SubjectID: guestIDs[0].String(),
		At:        requestcontext.Now(ctx),
		Detail: map[string]string{
			"operation": string(in.Op),
			"requested": strconv.Itoa(len(guestIDs)),
			"processed": strconv.Itoa(result.Processed),
			"failed":    strconv.Itoa(len(result.Errors)),
		},
	})
	return result, nil
}

// applyBulkItem applies the operation to one already-authorized guest. Errors
// come back as domain errors so the item message stays client-safe.
func (s *Service) applyBulkItem(ctx context.Context, guest *models.Guest, op BulkOp, data BulkData) error {
	now := requestcontext.Now(ctx)

	switch op {
	case BulkDelete:
		if err := guest.CanDelete(); err != nil {
			return err
		}
		if err := s.guests.Delete(ctx, guest.ID); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInvalidState):
				return dErrors.New(dErrors.CodeConflict, "cannot delete checked-in guest")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "guest not found")
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete guest")
			}
		}
		return nil

	case BulkStatusChange:
		if data.Status == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "status is required for status_change")
		}
		next := *data.Status
		if next == models.StatusCheckedIn {
			return dErrors.New(dErrors.CodeInvalidInput, "guests are checked in through the check-in workflow")
		}
		if err := s.guardEdit(ctx, guest, now); err != nil {
			return err
		}
		if err := models.ValidateStatusTransition(guest.Status, next); err != nil {
			return err
		}
		guest.Status = next

	case BulkUpdate:
		if err := s.guardEdit(ctx, guest, now); err != nil {
			return err
		}
		if data.Name != nil {
			name := strings.TrimSpace(*data.Name)
			if name == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "guest name cannot be empty")
			}
			guest.Name = name
		}
		if data.Email != nil {
			guest.Email = strings.TrimSpace(*data.Email)
		}
		if data.Transport != nil || data.PickupStation != nil {
			transport := guest.Transport
			pickup := guest.PickupStation
			if data.Transport != nil {
				transport = *data.Transport
			}
			if data.PickupStation != nil {
				pickup = strings.TrimSpace(*data.PickupStation)
			}
			if data.Transport != nil && transport == domain.TransportPrivate {
				pickup = ""
			}
			if err := models.ValidateTransport(transport, pickup); err != nil {
				return err
			}
			guest.Transport = transport
			guest.PickupStation = pickup
		}

	case BulkAssignPickup:
		if data.PickupStation == nil || strings.TrimSpace(*data.PickupStation) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "pickup station is required for assign_pickup")
		}
		if guest.Transport != domain.TransportBus {
			return dErrors.New(dErrors.CodeInvalidInput, "pickup station only applies to bus transport")
		}
		if err := s.guardEdit(ctx, guest, now); err != nil {
			return err
		}
		guest.PickupStation = strings.TrimSpace(*data.PickupStation)
	}

	guest.UpdatedAt = now
	if err := s.guests.Update(ctx, guest); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "guest not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update guest")
	}
	return nil
}

// guardEdit enforces the edit preconditions shared by mutating bulk items.
func (s *Service) guardEdit(ctx context.Context, guest *models.Guest, now time.Time) error {
	ev, err := s.loadEvent(ctx, guest.EventID)
	if err != nil {
		return err
	}
	return guest.CanEdit(ev.ScheduledAt, now)
}
