package middleware

import (
	"log/slog"
	"net/http"

	"convene/pkg/domain"
	"convene/pkg/requestcontext"
)

// AuthorizationPolicy is the explicit per-route authorization value: the roles
// allowed to call the route. It is a plain value attached at router wiring time
// and evaluated here, so every route's policy is visible and testable without
// metadata reflection.
type AuthorizationPolicy struct {
	AllowedRoles []domain.Role
}

// Allows reports whether the policy admits the given role.
func (p AuthorizationPolicy) Allows(role domain.Role) bool {
	for _, allowed := range p.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// AdminRoles is the policy shared by the /admin/guests surface.
func AdminRoles() AuthorizationPolicy {
	return AuthorizationPolicy{AllowedRoles: []domain.Role{
		domain.RoleSuperAdmin,
		domain.RoleStateAdmin,
		domain.RoleBranchAdmin,
		domain.RoleZonalAdmin,
	}}
}

// RegistrarOnly is the policy for the check-in surface.
func RegistrarOnly() AuthorizationPolicy {
	return AuthorizationPolicy{AllowedRoles: []domain.Role{domain.RoleRegistrar}}
}

// RequireRole rejects authenticated requests whose role is outside the route's
// policy. It must run after RequireAuth.
func RequireRole(policy AuthorizationPolicy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.ActorRole(ctx)
			if !policy.Allows(role) {
				logger.WarnContext(ctx, "forbidden - role outside route policy",
					"request_id", requestcontext.RequestID(ctx),
					"actor_id", requestcontext.ActorID(ctx).String(),
					"role", role.String(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"role not permitted for this operation"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
