package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "auth_principal"

type principalCtxKey struct{}

// Principal represents the authenticated caller of a single request.
type Principal struct {
	Subject     string
	ProfileID   int64
	Authorities []string
	ExpiresAt   time.Time
}

// PrincipalFromLocals returns the principal stored on the request, if any.
// Fiber request locals are reset between requests.
func PrincipalFromLocals(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// RequestContext builds the context handed to business logic for this
// request. It always carries the request's own principal slot, so a value
// left on a reused user context can never be observed.
func RequestContext(c *fiber.Ctx) context.Context {
	principal, _ := PrincipalFromLocals(c)
	return WithPrincipal(c.UserContext(), principal)
}

// WithPrincipal attaches principal to ctx. A nil principal marks the
// context as unauthenticated.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return principal, ok && principal != nil
}
