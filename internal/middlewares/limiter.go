package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/params"
)

var ErrTooManyAttempts = apperr.RateLimited("Too many login attempts. Please try again later")

// LoginLimiter throttles login attempts per client IP. Counters live in
// storage so every instance behind the load balancer shares them.
func LoginLimiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        params.LoginRateLimitMax,
		Expiration: params.LoginRateLimitWindow,
		Storage:    storage,
		LimitReached: func(ctx *fiber.Ctx) error {
			return ErrTooManyAttempts
		},
	})
}
