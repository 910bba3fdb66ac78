package httpserver

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/pkg/bininfo"
	"exusiai.dev/bgstats/internal/pkg/middlewares"
	"exusiai.dev/bgstats/internal/pkg/observability"
)

var registerPromOnce sync.Once

// Create builds the devops server: health, build info, metrics and the
// admin API. Statistics are served from the bucket, never from here.
func Create(conf *appconfig.Config, tp *tracesdk.TracerProvider) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Battlegrounds Stats Aggregator",
		ServerHeader: fmt.Sprintf("bgstats/%s", bininfo.Version),
		ReadTimeout:  time.Second * 20,
		// admin aggregation requests run a full selector
		WriteTimeout: time.Minute * 5,
		// allow possibility for graceful shutdown, otherwise app#Shutdown() will block forever
		IdleTimeout:           conf.HTTPServerShutdownTimeout,
		ErrorHandler:          ErrorHandler,
		Immutable:             true,
		DisableStartupMessage: !conf.DevMode,
	})

	app.Use(fibersentry.New(fibersentry.Config{
		Repanic: true,
		Timeout: time.Second * 5,
	}))
	middlewares.Logger(app)
	// the logger middleware injects RequestID into the context,
	// and we need an extra middleware to extract it and repopulate it into ctx.Locals
	app.Use(middlewares.RequestID())

	app.Use(helmet.New(helmet.Config{
		ReferrerPolicy: "no-referrer",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().Msgf("panic: %v\n%s\n", e, buf)
		},
	}))
	registerPromOnce.Do(func() {
		fiberprom := fiberprometheus.New(observability.ServiceName)
		fiberprom.RegisterAt(app, "/metrics")
		app.Use(fiberprom.Middleware)
	})

	if tp != nil {
		app.Use(otelfiber.Middleware(otelfiber.WithTracerProvider(tp)))
	}

	if conf.DevMode {
		log.Info().Msg("Running in DEV mode")
		app.Use(pprof.New())
	} else {
		app.Use(middlewares.EnrichSentry())
	}

	return app
}
