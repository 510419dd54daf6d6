package middlewares

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/auth"
)

const actorLocalsKey = "actor"

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.AccessClaims, error)
}

func bearerToken(ctx *fiber.Ctx) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer access token and
// stores the caller as an audit.Actor in the request locals.
func RequireAuth(authenticator Authenticator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := authenticator.Authenticate(ctx.Context(), bearerToken(ctx))
		if err != nil {
			return err
		}
		ctx.Locals(actorLocalsKey, audit.Actor{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
			IP:    ctx.IP(),
		})
		return ctx.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !GetActor(ctx).IsAdmin() {
			return auth.ErrNotAdmin
		}
		return ctx.Next()
	}
}

func GetActor(ctx *fiber.Ctx) audit.Actor {
	actor, _ := ctx.Locals(actorLocalsKey).(audit.Actor)
	return actor
}
