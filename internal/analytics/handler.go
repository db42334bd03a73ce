package analytics

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"convene/internal/platform/middleware"
	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/httputil"
	"convene/pkg/requestcontext"
)

const defaultTrendDays = 30

// Handler serves the /admin/guests/analytics routes.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the analytics routes for the admin hierarchy.
func (h *Handler) Register(r chi.Router) {
	adminOnly := middleware.RequireRole(middleware.AdminRoles(), h.logger)

	r.Route("/admin/guests/analytics", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/basic", h.basic)
		r.Get("/trends", h.trends)
		r.Get("/worker-performance", h.workerPerformance)
		r.Get("/events", h.events)
	})
}

func (h *Handler) basic(w http.ResponseWriter, r *http.Request) {
	eventID, err := optionalEventID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Basic(r.Context(), requestcontext.ActorID(r.Context()), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	days := defaultTrendDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid days value"))
			return
		}
		days = n
	}
	result, err := h.service.Trends(r.Context(), requestcontext.ActorID(r.Context()), days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"trends": result})
}

func (h *Handler) workerPerformance(w http.ResponseWriter, r *http.Request) {
	eventID, err := optionalEventID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.WorkerPerformance(r.Context(), requestcontext.ActorID(r.Context()), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"workers": result})
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.EventSummary(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": result})
}

func optionalEventID(r *http.Request) (*domain.EventID, error) {
	raw := r.URL.Query().Get("eventId")
	if raw == "" {
		return nil, nil
	}
	id, err := domain.ParseEventID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
