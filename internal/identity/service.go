package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"convene/pkg/domain"
	dErrors "convene/pkg/domain-errors"
	"convene/pkg/platform/sentinel"
	"convene/pkg/requestcontext"
)

// TokenIssuer mints access tokens for authenticated actors.
type TokenIssuer interface {
	GenerateAccessToken(actorID domain.ActorID, role domain.Role, expiresIn time.Duration) (string, error)
}

// Service handles actor authentication and lookup.
type Service struct {
	actors   Store
	tokens   TokenIssuer
	logger   *slog.Logger
	tokenTTL time.Duration
}

func NewService(actors Store, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		actors:   actors,
		tokens:   tokens,
		logger:   logger,
		tokenTTL: 12 * time.Hour,
	}
}

// LoginResult is the successful authentication payload.
type LoginResult struct {
	Token string    `json:"token"`
	Actor ActorView `json:"actor"`
}

// ActorView is the client-safe actor summary.
type ActorView struct {
	ID    domain.ActorID `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  domain.Role    `json:"role"`
}

// Authenticate verifies credentials and issues an access token. Credential
// failures are indistinguishable to the caller: always CodeUnauthorized with
// the same message, so the endpoint can't be used to probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	actor, err := s.actors.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	if !actor.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "failed login attempt",
			"request_id", requestcontext.RequestID(ctx),
			"actor_id", actor.ID.String(),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(actor.ID, actor.Role, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &LoginResult{
		Token: token,
		Actor: ActorView{ID: actor.ID, Name: actor.Name, Email: actor.Email, Role: actor.Role},
	}, nil
}

// GetActor loads an actor by ID, translating store facts to domain errors.
func (s *Service) GetActor(ctx context.Context, actorID domain.ActorID) (*Actor, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
	}
	return actor, nil
}
