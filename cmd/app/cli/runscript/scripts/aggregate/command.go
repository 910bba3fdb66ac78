package script_aggregate

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/service"
)

type CommandDeps struct {
	fx.In

	AggregateService *service.Aggregate
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "aggregate",
		Description: "aggregate one selector, or every selector of an entity when no time period is given",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "entity",
				Usage:    "entity to aggregate: hero, quest, reward, trinket or card",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "period",
				Usage: "time period of a single selector: all-time, past-three, past-seven or last-patch",
			},
			&cli.IntFlag{
				Name:  "percentile",
				Usage: "mmr percentile band of a single selector",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "content filter of a single selector",
				Value: "all",
			},
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "serve fgprof on 127.0.0.1:6060 while the script runs",
			},
		},
		Action: func(ctx *cli.Context) error {
			return run(ctx, depsFn())
		},
	}
}
