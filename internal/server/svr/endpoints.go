package svr

import (
	"github.com/gofiber/fiber/v2"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/pkg/middlewares"
)

type Meta struct {
	fiber.Router
}

type Admin struct {
	fiber.Router
}

func CreateEndpointGroups(app *fiber.App, conf *appconfig.Config) (*Meta, *Admin) {
	meta := app.Group("/api/_/meta")
	admin := app.Group("/api/_/admin", middlewares.AdminKey(conf.AdminKey))

	return &Meta{Router: meta}, &Admin{Router: admin}
}
