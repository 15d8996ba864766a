package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set it
// themselves. Seller records are immutable, so a single seller may be cached
// for long; anything depending on the set of sellers must revalidate.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/health" || path == "/ready":
			ttl = "public, max-age=10"

		case path == "/metrics" || strings.HasPrefix(path, "/ws"):
			ttl = "no-store"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case path == "/api/sellers" || strings.HasPrefix(path, "/api/sellers/near"):
			ttl = "no-cache" // revalidate via ETag; changes on every insert

		case strings.HasPrefix(path, "/api/sellers/"):
			ttl = "public, max-age=86400, immutable"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
