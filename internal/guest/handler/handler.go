// Package handler exposes the administrative guest surface over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"convene/internal/guest/models"
	"convene/internal/guest/service"
	"convene/internal/platform/middleware"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/httputil"
	"convene/pkg/requestcontext"
)

// Handler serves the /admin/guests routes.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the admin guest routes. Listing, bulk operations, status
// changes and deletion are admin-hierarchy routes; registration is the worker
// entry point.
func (h *Handler) Register(r chi.Router) {
	adminOnly := middleware.RequireRole(middleware.AdminRoles(), h.logger)
	workerPolicy := middleware.AuthorizationPolicy{
		AllowedRoles: append(middleware.AdminRoles().AllowedRoles, domain.RoleWorker),
	}
	canRegister := middleware.RequireRole(workerPolicy, h.logger)

	r.Route("/admin/guests", func(r chi.Router) {
		r.With(adminOnly).Get("/", h.list)
		r.With(canRegister).Post("/", h.register)
		r.With(adminOnly).Post("/bulk-operation", h.bulkOperation)
		r.With(adminOnly).Patch("/{guestID}/status", h.updateStatus)
		r.With(adminOnly).Delete("/{guestID}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	in, err := parseListInput(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), requestcontext.ActorID(r.Context()), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type registerRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	EventID       string `json:"event_id"`
	StateID       string `json:"state_id"`
	BranchID      string `json:"branch_id"`
	Transport     string `json:"transport_preference"`
	PickupStation string `json:"pickup_station,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	eventID, err := domain.ParseEventID(req.EventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stateID, err := domain.ParseStateID(req.StateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	branchID, err := domain.ParseBranchID(req.BranchID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	transport, err := domain.ParseTransportPreference(req.Transport)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), requestcontext.ActorID(r.Context()), service.RegisterInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		EventID:       eventID,
		StateID:       stateID,
		BranchID:      branchID,
		Transport:     transport,
		PickupStation: req.PickupStation,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

type bulkRequest struct {
	GuestIDs []string         `json:"guest_ids"`
	Op       string           `json:"operation"`
	Data     service.BulkData `json:"data"`
}

func (h *Handler) bulkOperation(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	guestIDs := make([]domain.GuestID, 0, len(req.GuestIDs))
	for _, raw := range req.GuestIDs {
		id, err := domain.ParseGuestID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		guestIDs = append(guestIDs, id)
	}

	result, err := h.service.BulkOperation(r.Context(), requestcontext.ActorID(r.Context()), service.BulkInput{
		GuestIDs: guestIDs,
		Op:       service.BulkOp(req.Op),
		Data:     req.Data,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	guestID, err := domain.ParseGuestID(chi.URLParam(r, "guestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), requestcontext.ActorID(r.Context()), guestID, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	guestID, err := domain.ParseGuestID(chi.URLParam(r, "guestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), requestcontext.ActorID(r.Context()), guestID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseListInput translates the query string into the service filter. Unknown
// parameters are ignored; malformed values are rejected.
func parseListInput(r *http.Request) (service.ListInput, error) {
	q := r.URL.Query()
	var in service.ListInput

	if raw := q.Get("eventId"); raw != "" {
		id, err := domain.ParseEventID(raw)
		if err != nil {
			return in, err
		}
		in.EventID = &id
	}
	if raw := q.Get("registeredBy"); raw != "" {
		id, err := domain.ParseActorID(raw)
		if err != nil {
			return in, err
		}
		in.RegisteredBy = &id
	}
	if raw := q.Get("transport"); raw != "" {
		t, err := domain.ParseTransportPreference(raw)
		if err != nil {
			return in, err
		}
		in.Transport = &t
	}
	if raw := q.Get("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return in, err
		}
		in.Status = &st
	}
	if raw := q.Get("checkedIn"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return in, dErrors.New(dErrors.CodeInvalidInput, "invalid checkedIn value")
		}
		in.CheckedIn = &b
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, dErrors.New(dErrors.CodeInvalidInput, "invalid from timestamp")
		}
		in.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, dErrors.New(dErrors.CodeInvalidInput, "invalid to timestamp")
		}
		in.To = &t
	}
	in.Search = q.Get("search")

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return in, dErrors.New(dErrors.CodeInvalidInput, "invalid offset")
		}
		in.Page.Offset = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return in, dErrors.New(dErrors.CodeInvalidInput, "invalid limit")
		}
		in.Page.Limit = n
	}
	return in, nil
}
