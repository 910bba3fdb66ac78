package middlewares

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"exusiai.dev/bgstats/internal/pkg/bgerr"
)

// AdminKey guards admin routes with a static bearer key. An empty key locks
// the routes entirely.
func AdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return bgerr.ErrUnauthorized.Msg("admin API is disabled")
		}
		got := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return bgerr.ErrUnauthorized.Msg("invalid admin key")
		}
		return c.Next()
	}
}
