package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"exusiai.dev/bgstats/internal/pkg/flog"
)

const ContextKeyRequestID = "requestId"

// RequestID copies the id assigned by the logger chain into ctx.Locals.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := flog.IDFromFiberCtx(c); ok {
			c.Locals(ContextKeyRequestID, id.String())
		}
		return c.Next()
	}
}
