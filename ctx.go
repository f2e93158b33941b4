package taskdesk

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithUser sets the current user in the given context
func WithUser(ctx context.Context, user *UserClaims) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*UserClaims, bool) {
	raw, ok := ctx.Value(userCtxKey).(*UserClaims)
	return raw, ok && raw != nil
}

// CurrentUser returns the user the gate attached to the request
func CurrentUser(c *fiber.Ctx) (*UserClaims, bool) {
	raw, ok := c.Locals(LocalsUser).(*UserClaims)
	return raw, ok && raw != nil
}

// ActionErrorFrom returns the action error the gate attached to the request,
// either from this request's action or from a pending payload.
func ActionErrorFrom(c *fiber.Ctx) (*ActionError, bool) {
	raw, ok := c.Locals(LocalsActionError).(*ActionError)
	return raw, ok && raw != nil
}
