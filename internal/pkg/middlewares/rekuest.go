package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"exusiai.dev/bgstats/internal/util/rekuest"
)

const BodyLocalsKey = "body"

// InjectValidBody parses and validates the request body into a T and stores
// a pointer to it under BodyLocalsKey.
func InjectValidBody[T any]() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dest := new(T)
		if err := rekuest.ValidBody(ctx, dest); err != nil {
			return err
		}
		ctx.Locals(BodyLocalsKey, dest)
		return ctx.Next()
	}
}
