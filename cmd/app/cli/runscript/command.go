package runscript

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "exusiai.dev/bgstats/cmd/app/cli"
	script_aggregate "exusiai.dev/bgstats/cmd/app/cli/runscript/scripts/aggregate"
	script_dispatch "exusiai.dev/bgstats/cmd/app/cli/runscript/scripts/dispatch"
	script_enumerate "exusiai.dev/bgstats/cmd/app/cli/runscript/scripts/enumerate"
)

func depsFn[T any]() func() T {
	return func() T {
		var deps T
		cliapp.Start(fx.Populate(&deps))
		return deps
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run-script",
		Description: "run maintenance go scripts",
		Subcommands: []*cli.Command{
			script_aggregate.Command(depsFn[script_aggregate.CommandDeps]()),
			script_dispatch.Command(depsFn[script_dispatch.CommandDeps]()),
			script_enumerate.Command(depsFn[script_enumerate.CommandDeps]()),
		},
	}
}
