package service

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("service", fx.Provide(
		NewPatch,
		NewHealth,
		NewDispatch,
		NewSnapshot,
		NewAggregate,
		NewContentPool,
	))
}
