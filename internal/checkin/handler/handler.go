// Package handler exposes the check-in workflow over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/checkin"
	"convene/internal/platform/middleware"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/httputil"
	"convene/pkg/requestcontext"
)

// Handler serves the /check-in routes.
type Handler struct {
	service *checkin.Service
	logger  *slog.Logger
}

func New(service *checkin.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the check-in routes with their authorization policies.
// Search, check-in and the dashboard are registrar-only; statistics are also
// readable by the admin hierarchy.
func (h *Handler) Register(r chi.Router) {
	registrarOnly := middleware.RequireRole(middleware.RegistrarOnly(), h.logger)
	statsPolicy := middleware.AuthorizationPolicy{
		AllowedRoles: append(middleware.AdminRoles().AllowedRoles, domain.RoleRegistrar),
	}
	statsRoles := middleware.RequireRole(statsPolicy, h.logger)

	r.Route("/check-in", func(r chi.Router) {
		r.With(registrarOnly).Post("/search", h.search)
		r.With(registrarOnly).Post("/guest", h.checkInGuest)
		r.With(statsRoles).Get("/statistics/event/{eventID}", h.statistics)
		r.With(registrarOnly).Get("/dashboard", h.dashboard)
	})
}

type searchRequest struct {
	EventID    string `json:"event_id"`
	ZoneID     string `json:"zone_id,omitempty"`
	SearchTerm string `json:"search_term,omitempty"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	eventID, err := domain.ParseEventID(req.EventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in := checkin.SearchInput{EventID: eventID, SearchTerm: req.SearchTerm}
	if req.ZoneID != "" {
		zoneID, err := domain.ParseZoneID(req.ZoneID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		in.ZoneID = &zoneID
	}

	guests, err := h.service.SearchGuests(r.Context(), in, requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"guests": guests,
		"count":  len(guests),
	})
}

type checkInRequest struct {
	GuestID string `json:"guest_id"`
	EventID string `json:"event_id"`
	Notes   string `json:"notes,omitempty"`
}

func (h *Handler) checkInGuest(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	guestID, err := domain.ParseGuestID(req.GuestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := domain.ParseEventID(req.EventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CheckInGuest(r.Context(), checkin.CheckInInput{
		GuestID: guestID,
		EventID: eventID,
		Notes:   req.Notes,
	}, requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var zoneID *domain.ZoneID
	if raw := r.URL.Query().Get("zoneId"); raw != "" {
		parsed, err := domain.ParseZoneID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		zoneID = &parsed
	}

	stats, err := h.service.Statistics(r.Context(), eventID, zoneID, requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.RegistrarDashboard(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}
