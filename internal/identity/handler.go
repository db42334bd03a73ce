package identity

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/httputil"
)

// Handler serves the authentication routes. Login is the only route in the
// system that runs without RequireAuth.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the public auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	device := DescribeDevice(r.UserAgent())
	result, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			"email", req.Email, "device", device)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "login succeeded",
		"actor_id", result.Actor.ID, "device", device)
	httputil.WriteJSON(w, http.StatusOK, result)
}
