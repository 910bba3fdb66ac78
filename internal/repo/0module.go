package repo

import (
	"context"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("repo", fx.Provide(
		NewArtifact,
		NewSnapshot,
		NewShardStores,
	))
}

// Migrate creates the tables the repositories rely on at application start.
func Migrate(lc fx.Lifecycle, snapshot *Snapshot) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return snapshot.CreateTable(ctx)
		},
	})
}
