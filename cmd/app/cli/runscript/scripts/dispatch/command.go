package script_dispatch

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/service"
)

type CommandDeps struct {
	fx.In

	DispatchService *service.Dispatch
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "dispatch",
		Description: "publish an aggregate job for every selector of the given entities",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "entity",
				Usage:    "entities to dispatch, repeatable",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			deps := depsFn()
			for _, e := range ctx.StringSlice("entity") {
				n, err := deps.DispatchService.PublishAll(ctx.Context, shard.Entity(e))
				if err != nil {
					return errors.Wrapf(err, "dispatch of %s stopped after %d jobs", e, n)
				}
				log.Info().Str("entity", e).Int("published", n).Msg("entity dispatched")
			}
			return nil
		},
	}
}
