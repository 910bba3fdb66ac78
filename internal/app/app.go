package app

import (
	"time"

	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/app/appcontext"
	"exusiai.dev/bgstats/internal/controller"
	"exusiai.dev/bgstats/internal/infra"
	"exusiai.dev/bgstats/internal/pkg/logger"
	"exusiai.dev/bgstats/internal/repo"
	"exusiai.dev/bgstats/internal/server"
	"exusiai.dev/bgstats/internal/service"
	"exusiai.dev/bgstats/internal/workers/aggwkr"
	"exusiai.dev/bgstats/internal/workers/calcwkr"
)

func Options(ctx appcontext.Ctx, additionalOpts ...fx.Option) []fx.Option {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		panic(err)
	}

	// logger and configuration are the only two things that are not in the fx graph
	// because some other packages need them to be initialized before fx starts
	logger.Configure(conf)

	baseOpts := []fx.Option{
		// fx meta
		fx.WithLogger(logger.Fx),

		// Misc
		fx.Supply(conf),

		// Infrastructures
		infra.Module(),

		// Repositories
		repo.Module(),

		// Services
		service.Module(),

		// Global Singleton Inits
		fx.Invoke(infra.SentryInit),
		fx.Invoke(infra.Datadog),
		fx.Invoke(repo.Migrate),
	}

	if ctx.Env != appcontext.EnvCLI {
		baseOpts = append(baseOpts,
			// Servers
			server.Module(),

			// Controllers
			controller.Module(),

			// Workers
			fx.Invoke(calcwkr.Start),
			fx.Invoke(aggwkr.Start),
		)
	}

	baseOpts = append(baseOpts,
		// fx Extra Options
		fx.StartTimeout(10*time.Second),
		// StopTimeout is not typically needed, since we're using fiber's Shutdown(),
		// in which fiber has its own IdleTimeout for controlling the shutdown timeout.
		// It acts as a countermeasure in case the fiber app is not properly shutting down.
		fx.StopTimeout(5*time.Minute),
	)

	return append(baseOpts, additionalOpts...)
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) *fx.App {
	return fx.New(Options(ctx, additionalOpts...)...)
}
