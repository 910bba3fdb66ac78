package script_aggregate

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/felixge/fgprof"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func run(ctx *cli.Context, deps CommandDeps) error {
	if ctx.Bool("profile") {
		http.DefaultServeMux.Handle("/debug/fgprof", fgprof.Handler())
		go func() {
			log.Print(http.ListenAndServe("127.0.0.1:6060", nil))
		}()
	}

	entity := shard.Entity(ctx.String("entity"))
	log.Info().Str("entity", string(entity)).Msg("running script")

	if ctx.String("period") == "" {
		summary, err := deps.AggregateService.RunAll(ctx.Context, entity)
		if err != nil {
			return errors.Wrap(err, "failed to aggregate entity")
		}
		log.Info().
			Int("total", summary.Total).
			Int("succeeded", summary.Succeeded).
			Int("noData", summary.NoData).
			Int("failed", summary.Failed).
			Msg("script finished")
		if summary.Failed > 0 {
			return errors.Errorf("%d selectors failed", summary.Failed)
		}
		return nil
	}

	filter, err := model.ParseFilter(ctx.String("filter"))
	if err != nil {
		return errors.Wrap(err, "failed to parse filter")
	}
	sel := model.Selector{
		Entity:        entity,
		TimePeriod:    model.TimePeriod(ctx.String("period")),
		MmrPercentile: ctx.Int("percentile"),
		Filter:        filter,
	}
	res, err := deps.AggregateService.RunJob(ctx.Context, sel)
	if err != nil {
		return errors.Wrapf(err, "failed to aggregate %s", sel)
	}

	log.Info().
		Str("key", res.Key).
		Str("version", res.Version).
		Int("files", res.Files).
		Int("dataPoints", res.DataPoints).
		Int("stats", res.Stats).
		Msg("script finished")
	return nil
}
