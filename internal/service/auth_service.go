package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/hospital-records/internal/auth"
	"github.com/spec-kit/hospital-records/internal/config"
	"github.com/spec-kit/hospital-records/internal/domain"
	"github.com/spec-kit/hospital-records/internal/events"
	"github.com/spec-kit/hospital-records/internal/observability"
	"github.com/spec-kit/hospital-records/internal/repository"
	"github.com/spec-kit/hospital-records/pkg/util/errorutil"
)

const (
	opRegister = "register"
	opLogin    = "login"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	principals  repository.PrincipalRepository
	hasher      auth.PasswordHasher
	tokenMgr    *auth.TokenManager
	defaultRole domain.Role
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time

	// dummyHash is verified against when the identifier is unknown so both
	// login failure paths do the same bcrypt work.
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
// Hasher, Dispatcher, Metrics and Clock are optional; Hasher defaults to bcrypt
// at the configured cost.
type AuthDependencies struct {
	Principals repository.PrincipalRepository
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service. It fails when the hasher cannot produce
// the placeholder hash used for unknown identifiers.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	var hasher auth.PasswordHasher = auth.NewBcryptHasher(cfg.BcryptCost)
	if deps.Hasher != nil {
		hasher = deps.Hasher
	}
	dummyHash, err := hasher.Hash("invalid-password-placeholder")
	if err != nil {
		return nil, fmt.Errorf("hash login placeholder: %w", err)
	}

	s := &AuthService{
		principals:  deps.Principals,
		hasher:      hasher,
		tokenMgr:    auth.NewTokenManager(cfg.JWTSecret),
		defaultRole: cfg.DefaultRole,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         deps.Clock,
		dummyHash:   dummyHash,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if !s.defaultRole.Valid() {
		s.defaultRole = domain.RoleReceptionist
	}
	return s, nil
}

// Register creates a principal with the default role. Nothing is persisted
// when any step fails.
func (s *AuthService) Register(ctx context.Context, identifier, password string) (*domain.Principal, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	if identifier == "" || password == "" {
		return nil, errorutil.NewValidationError("identifier and password required", nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, errorutil.NewValidationError("password must be at most 72 bytes", nil)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	principal, err := s.principals.Save(ctx, &domain.Principal{
		Identifier:   identifier,
		PasswordHash: hash,
		Role:         s.defaultRole,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePrincipal) {
			s.metrics.RecordCredentialOp(opRegister, "duplicate")
			return nil, domain.ErrDuplicatePrincipal
		}
		s.metrics.RecordCredentialOp(opRegister, "error")
		return nil, err
	}

	s.metrics.RecordCredentialOp(opRegister, "ok")
	s.publish(ctx, events.Event{
		Type:    events.EventPrincipalRegistered,
		Subject: principal.Identifier,
		Payload: events.PrincipalRegisteredPayload{Role: principal.Role},
	})
	return principal, nil
}

// Login verifies credentials and issues a token carrying the principal's
// current role. Unknown identifiers and wrong passwords both return
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, time.Time, error) {
	identifier = domain.NormalizeIdentifier(identifier)

	principal, err := s.principals.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.loginFailed(ctx, identifier, "unknown_principal")
			return "", time.Time{}, domain.ErrInvalidCredentials
		}
		s.metrics.RecordCredentialOp(opLogin, "error")
		return "", time.Time{}, err
	}

	if !s.hasher.Verify(password, principal.PasswordHash) {
		s.loginFailed(ctx, identifier, "password_mismatch")
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokenMgr.Issue(principal.Identifier, principal.Role, s.now())
	if err != nil {
		s.metrics.RecordCredentialOp(opLogin, "error")
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordCredentialOp(opLogin, "ok")
	s.publish(ctx, events.Event{
		Type:    events.EventLoginSucceeded,
		Subject: principal.Identifier,
		Payload: events.LoginSucceededPayload{Role: principal.Role, ExpiresAt: exp},
	})
	return token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) loginFailed(ctx context.Context, identifier, reason string) {
	s.metrics.RecordCredentialOp(opLogin, "invalid_credentials")
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Subject: identifier,
		Payload: events.LoginFailedPayload{Reason: reason},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish auth event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
