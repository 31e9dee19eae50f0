package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/hospital-records/internal/domain"
	"github.com/spec-kit/hospital-records/internal/events"
	"github.com/spec-kit/hospital-records/internal/observability"
	"github.com/spec-kit/hospital-records/pkg/util/errorutil"
)

const (
	identityKey  = "auth_identity"
	bearerPrefix = "Bearer "
)

// PrincipalFinder resolves stored principals by identifier.
type PrincipalFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error)
}

// Outcome is the result of one authentication pass. Identity is set only
// when State is authenticated; Reason is set only when State is rejected and
// is for diagnostics, never for the client.
type Outcome struct {
	State    domain.AuthState
	Identity domain.Identity
	Reason   error
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	principals PrincipalFinder
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	now        func() time.Time
}

// MiddlewareOption customizes AuthMiddleware.
type MiddlewareOption func(*AuthMiddleware)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) MiddlewareOption {
	return func(m *AuthMiddleware) { m.now = now }
}

// WithMetrics records outcomes on the given metrics.
func WithMetrics(metrics *observability.Metrics) MiddlewareOption {
	return func(m *AuthMiddleware) { m.metrics = metrics }
}

// WithDispatcher publishes rejections as events.
func WithDispatcher(dispatcher events.Dispatcher) MiddlewareOption {
	return func(m *AuthMiddleware) { m.dispatcher = dispatcher }
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, principals PrincipalFinder, logger *zap.Logger, opts ...MiddlewareOption) *AuthMiddleware {
	m := &AuthMiddleware{
		tokens:     tokens,
		principals: principals,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate runs the request gate against a raw Authorization header
// value. A non-nil error means the credential store failed; it is never used
// for token problems.
//
// The subject is read before the signature is checked so the right principal
// can be loaded; Validate then verifies the signature against that same
// subject, so an unverified subject alone never authenticates anyone.
func (m *AuthMiddleware) Authenticate(ctx context.Context, authHeader string) (Outcome, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return Outcome{State: domain.AuthStateAnonymous}, nil
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])

	subject, err := m.tokens.PeekSubject(token)
	if err != nil {
		return rejected(err), nil
	}

	principal, err := m.principals.FindByIdentifier(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return rejected(err), nil
		}
		return Outcome{}, err
	}

	if _, err := m.tokens.Validate(token, principal.Identifier, m.now()); err != nil {
		return rejected(err), nil
	}

	return Outcome{
		State: domain.AuthStateAuthenticated,
		Identity: domain.Identity{
			Identifier: principal.Identifier,
			Role:       principal.Role,
		},
	}, nil
}

// Handle runs once per request before any protected handler. Anonymous
// requests pass through; route policies decide whether that is acceptable.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	outcome, err := m.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.logger.Error("credential lookup failed", zap.Error(err))
		return errorutil.NewInternalError(err)
	}

	m.metrics.RecordAuthOutcome(outcome.State)

	switch outcome.State {
	case domain.AuthStateAuthenticated:
		c.Locals(identityKey, outcome.Identity)
		c.SetUserContext(ContextWithIdentity(c.UserContext(), outcome.Identity))
	case domain.AuthStateRejected:
		reason := rejectionReason(outcome.Reason)
		m.logger.Info("request rejected",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("reason", reason),
			zap.NamedError("cause", outcome.Reason),
		)
		m.publishRejection(c, reason)
		return errorutil.NewUnauthorized("invalid token")
	}
	return c.Next()
}

func (m *AuthMiddleware) publishRejection(c *fiber.Ctx, reason string) {
	if m.dispatcher == nil {
		return
	}
	err := m.dispatcher.Publish(c.UserContext(), events.Event{
		Type: events.EventRequestRejected,
		// fiber reuses the request buffers once the handler returns
		Payload: events.RequestRejectedPayload{
			Method: utils.CopyString(c.Method()),
			Path:   utils.CopyString(c.Path()),
			Reason: reason,
		},
	})
	if err != nil {
		m.logger.Warn("publish rejection event", zap.Error(err))
	}
}

// IdentityFromContext retrieves the authenticated identity from fiber locals.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

func rejected(reason error) Outcome {
	return Outcome{State: domain.AuthStateRejected, Reason: reason}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrExpiredToken):
		return "expired"
	case errors.Is(err, domain.ErrPrincipalNotFound):
		return "unknown_principal"
	default:
		return "invalid"
	}
}
