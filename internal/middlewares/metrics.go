package middlewares

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/common"
)

// Metrics records request counts and latencies labelled by route pattern.
func Metrics() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		status := ctx.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if err != nil {
			status = apperr.StatusCode(err)
		}
		route := ctx.Route().Path
		common.HTTPRequestsTotal.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		common.HTTPRequestDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
