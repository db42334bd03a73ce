package testutil

import (
	"net/http"

	"convene/pkg/domain"
	"convene/pkg/requestcontext"
)

// WithActor stashes the actor identity in the request context, simulating
// what RequireAuth does for authenticated requests.
func WithActor(req *http.Request, actorID domain.ActorID, role domain.Role) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actorID, role)
	return req.WithContext(ctx)
}
