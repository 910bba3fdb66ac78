package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"exusiai.dev/bgstats/cmd/app/cli/runscript"
	"exusiai.dev/bgstats/cmd/app/server"
	"exusiai.dev/bgstats/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "bgstats",
		Description: "Battlegrounds statistics aggregator. Merges hourly and daily shards into global statistics artifacts. Built with Go, fiber, bun and go.uber.org/fx. Uses NATS as MQ and Redis as state synchronization.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			runscript.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
