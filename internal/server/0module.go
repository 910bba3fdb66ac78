package server

import (
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/server/httpserver"
	"exusiai.dev/bgstats/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
