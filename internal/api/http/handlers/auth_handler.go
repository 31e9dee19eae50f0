package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospital-records/internal/api/dto"
	"github.com/spec-kit/hospital-records/internal/auth"
	"github.com/spec-kit/hospital-records/internal/domain"
	"github.com/spec-kit/hospital-records/internal/service"
	"github.com/spec-kit/hospital-records/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	principal, err := h.auth.Register(c.UserContext(), req.Identifier, req.Secret())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePrincipal) {
			return errorutil.NewConflict("identifier already registered", nil)
		}
		return errorutil.ToDomainError(err)
	}

	return c.Status(http.StatusCreated).JSON(dto.PrincipalResponse{
		Identifier: principal.Identifier,
		Role:       string(principal.Role),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	token, exp, err := h.auth.Login(c.UserContext(), req.Identifier, req.Secret())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return errorutil.NewUnauthorized("invalid credentials")
		}
		return errorutil.ToDomainError(err)
	}

	return c.JSON(dto.TokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: exp})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.PrincipalResponse{
		Identifier: identity.Identifier,
		Role:       string(identity.Role),
	})
}

func parseCredentials(c *fiber.Ctx) (dto.CredentialsRequest, error) {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errorutil.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Secret() == "" {
		return req, errorutil.NewValidationError("identifier and password required", nil)
	}
	return req, nil
}
