package script_enumerate

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/service"
)

type CommandDeps struct {
	fx.In

	AggregateService *service.Aggregate
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "enumerate",
		Description: "print every selector of an entity, one per line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "entity",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			selectors, err := depsFn().AggregateService.Selectors(ctx.Context, shard.Entity(ctx.String("entity")))
			if err != nil {
				return err
			}
			for _, s := range selectors {
				fmt.Fprintln(ctx.App.Writer, s.String())
			}
			fmt.Fprintf(ctx.App.ErrWriter, "%d selectors\n", len(selectors))
			return nil
		},
	}
}
