package controller

import (
	"go.uber.org/fx"

	controllermeta "exusiai.dev/bgstats/internal/controller/meta"
)

func Module() fx.Option {
	return fx.Module("controller",
		// Controllers (meta)
		controllermeta.Module(),
	)
}
