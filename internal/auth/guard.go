package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests the Authenticator left anonymous.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromLocals(c); !ok {
			return apperrors.ErrUnauthenticated
		}
		return c.Next()
	}
}
