package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospital-records/internal/domain"
	"github.com/spec-kit/hospital-records/pkg/util/errorutil"
)

// RequireAuthenticated refuses anonymous callers.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the caller's live role is one of allowed.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return errorutil.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
