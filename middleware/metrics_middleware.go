package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"microloan-backend/lib/metrics"
)

func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		route := c.OriginalURL()
		if r := c.Route(); r != nil {
			route = r.Path
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(started).Seconds())
		return err
	}
}
