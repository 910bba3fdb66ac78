package service

import (
	"context"
	"time"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/core/entitymerge"
	"exusiai.dev/bgstats/internal/core/percentile"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/timewindow"
	"exusiai.dev/bgstats/internal/core/tribeset"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/observability"
	"exusiai.dev/bgstats/internal/repo"
)

var (
	ErrNoData        = errors.New("no shard data available for the selector")
	ErrUnknownEntity = errors.New("unknown entity")
)

type activePatch interface {
	Active(ctx context.Context) (*model.Patch, error)
}

type activeContent interface {
	Tribes(ctx context.Context) ([]int, error)
	Anomalies(ctx context.Context) ([]string, error)
}

type snapshotSaver interface {
	SaveSnapshot(ctx context.Context, key string, content string) (*model.Snapshot, error)
}

type AggregateOptions struct {
	Concurrency     int
	TribeSubsetSize int
	// ExclusionExpr is an expr predicate over `key` and `entity`.
	ExclusionExpr string
	Merge         entitymerge.Options
	Now           func() time.Time
}

func AggregateOptionsFromConfig(conf *appconfig.Config) AggregateOptions {
	merge := entitymerge.DefaultOptions()
	merge.MinSupportRatio = conf.MinSupportRatio
	merge.MissingRatio = conf.MissingRatio
	merge.MinDataPoints = conf.MinDataPoints
	return AggregateOptions{
		Concurrency:     conf.WorkerConcurrency,
		TribeSubsetSize: conf.TribeSubsetSize,
		ExclusionExpr:   conf.ExclusionExpr,
		Merge:           merge,
		Now:             time.Now,
	}
}

// JobResult describes one finished selector job.
type JobResult struct {
	Selector   model.Selector
	Key        string
	Version    string
	Files      int
	DataPoints int
	Stats      int
	Dropped    int
}

// Summary counts the outcomes of a sweep over an entity.
type Summary struct {
	Entity    shard.Entity
	Total     int
	Succeeded int
	NoData    int
	Failed    int
}

// Aggregate merges the shards of every selector into published artifacts.
type Aggregate struct {
	shards    *repo.ShardStores
	artifacts *repo.Artifact
	snapshots snapshotSaver
	patches   activePatch
	content   activeContent

	opts      AggregateOptions
	exclusion *vm.Program
	tracer    trace.Tracer
}

func NewAggregate(shards *repo.ShardStores, artifacts *repo.Artifact, snapshots *Snapshot, patches *Patch, content *ContentPool, conf *appconfig.Config) (*Aggregate, error) {
	return NewAggregateWith(shards, artifacts, snapshots, patches, content, AggregateOptionsFromConfig(conf))
}

func NewAggregateWith(shards *repo.ShardStores, artifacts *repo.Artifact, snapshots snapshotSaver, patches activePatch, content activeContent, opts AggregateOptions) (*Aggregate, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TribeSubsetSize == 0 {
		opts.TribeSubsetSize = tribeset.DefaultSize
	}

	a := &Aggregate{
		shards:    shards,
		artifacts: artifacts,
		snapshots: snapshots,
		patches:   patches,
		content:   content,
		opts:      opts,
		tracer:    otel.Tracer("exusiai.dev/bgstats/internal/service"),
	}
	if opts.ExclusionExpr != "" {
		program, err := expr.Compile(opts.ExclusionExpr, expr.Env(exclusionEnv("", "")), expr.AsBool())
		if err != nil {
			return nil, errors.Wrap(err, "failed to compile exclusion expression")
		}
		a.exclusion = program
	}
	return a, nil
}

func exclusionEnv(key string, entity shard.Entity) map[string]any {
	return map[string]any{
		"key":    key,
		"entity": string(entity),
	}
}

// mergeOptions narrows the configured merge options to sel.
func (a *Aggregate) mergeOptions(sel model.Selector) entitymerge.Options {
	opts := a.opts.Merge
	opts.Percentile = sel.MmrPercentile
	if a.exclusion != nil {
		program := a.exclusion
		opts.Exclude = func(key string) bool {
			out, err := expr.Run(program, exclusionEnv(key, sel.Entity))
			if err != nil {
				log.Warn().
					Err(err).
					Str("evt.name", "aggregate.exclusion_error").
					Str("key", key).
					Msg("failed to evaluate exclusion expression, keeping entity")
				return false
			}
			excluded, _ := out.(bool)
			return excluded
		}
	}
	return opts
}

// Filters lists the content filters of entity. Only heroes are sliced: "all"
// first, then every tribe subset of the active pool, then every anomaly.
func (a *Aggregate) Filters(ctx context.Context, entity shard.Entity) ([]model.Filter, error) {
	if entity != shard.EntityHero {
		return []model.Filter{{}}, nil
	}

	tribes, err := a.content.Tribes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active tribes")
	}
	it, err := tribeset.New(tribes, a.opts.TribeSubsetSize)
	if err != nil {
		return nil, err
	}
	subsets, err := it.Collect()
	if err != nil {
		return nil, err
	}
	filters := make([]model.Filter, 0, len(subsets))
	for _, s := range subsets {
		filters = append(filters, model.TribeFilter(s))
	}

	anomalies, err := a.content.Anomalies(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active anomalies")
	}
	for _, anomaly := range anomalies {
		filters = append(filters, model.AnomalyFilter(anomaly))
	}
	return filters, nil
}

// Selectors is the product of every time period, percentile band and filter
// of entity.
func (a *Aggregate) Selectors(ctx context.Context, entity shard.Entity) ([]model.Selector, error) {
	if !entity.Valid() {
		return nil, errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	filters, err := a.Filters(ctx, entity)
	if err != nil {
		return nil, err
	}

	selectors := make([]model.Selector, 0, len(model.TimePeriods)*len(percentile.Percentiles)*len(filters))
	for _, period := range model.TimePeriods {
		for _, p := range percentile.Percentiles {
			for _, f := range filters {
				selectors = append(selectors, model.Selector{
					Entity:        entity,
					TimePeriod:    period,
					MmrPercentile: p,
					Filter:        f,
				})
			}
		}
	}
	return selectors, nil
}

func (a *Aggregate) window(ctx context.Context, period model.TimePeriod) (timewindow.Window, error) {
	var patch *model.Patch
	if period == model.TimePeriodLastPatch {
		p, err := a.patches.Active(ctx)
		if err != nil {
			return timewindow.Window{}, errors.Wrap(err, "failed to resolve active patch")
		}
		patch = p
	}
	return timewindow.Resolve(period, a.opts.Now(), patch)
}

// RunSelector loads, merges and persists one selector. When the window holds
// no shard, or no shard entry qualifies, it returns ErrNoData and writes
// nothing.
func (a *Aggregate) RunSelector(ctx context.Context, sel model.Selector) (*JobResult, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	w, err := a.window(ctx, sel.TimePeriod)
	if err != nil {
		return nil, err
	}

	switch sel.Entity {
	case shard.EntityHero:
		return run(ctx, a, sel, w, a.shards.Hero, entitymerge.Heroes)
	case shard.EntityQuest:
		return run(ctx, a, sel, w, a.shards.Quest, entitymerge.Quests)
	case shard.EntityReward:
		return run(ctx, a, sel, w, a.shards.Reward, entitymerge.Rewards)
	case shard.EntityTrinket:
		return run(ctx, a, sel, w, a.shards.Trinket, entitymerge.Trinkets)
	case shard.EntityCard:
		return run(ctx, a, sel, w, a.shards.Card, entitymerge.Cards)
	}
	return nil, errors.Wrapf(ErrUnknownEntity, "%q", sel.Entity)
}

func run[T shard.Entry, R any](ctx context.Context, a *Aggregate, sel model.Selector, w timewindow.Window, store *repo.ShardStore[T], merge func([]T, entitymerge.Options) entitymerge.Result[R]) (*JobResult, error) {
	files, err := store.Load(ctx, w, sel.MmrPercentile, sel.Filter)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoData
	}

	var (
		entries    []T
		lastUpdate time.Time
	)
	for _, f := range files {
		entries = append(entries, f.Entries...)
		if f.LastUpdateDate.After(lastUpdate) {
			lastUpdate = f.LastUpdateDate
		}
	}
	table, err := percentile.Latest(files)
	if err != nil {
		// older producers did not attach the table
		table = percentile.Table{}
	}

	res := merge(entries, a.mergeOptions(sel))
	// shards without a single qualifying sample must not replace the last artifact
	if res.Entries == 0 || res.DataPoints == 0 {
		return nil, ErrNoData
	}
	if res.Stats == nil {
		res.Stats = []R{}
	}

	stamped, err := a.artifacts.Put(ctx, a.artifacts.StatsKey(sel), model.GlobalStat[R]{
		Entity:         string(sel.Entity),
		TimePeriod:     sel.TimePeriod,
		MmrPercentile:  sel.MmrPercentile,
		Filter:         sel.Filter.Key(),
		LastUpdateDate: lastUpdate.UTC(),
		DataPoints:     res.DataPoints,
		MmrPercentiles: table,
		Stats:          res.Stats,
	})
	if err != nil {
		return nil, err
	}

	// one percentile table per (entity, period), taken from the widest band
	if sel.MmrPercentile == percentile.Percentiles[0] && sel.Filter.IsAll() && len(table) > 0 {
		if _, err := a.artifacts.Put(ctx, a.artifacts.PercentileKey(sel.Entity, sel.TimePeriod), model.PercentileArtifact{
			Entity:         string(sel.Entity),
			TimePeriod:     sel.TimePeriod,
			LastUpdateDate: lastUpdate.UTC(),
			MmrPercentiles: table,
		}); err != nil {
			return nil, err
		}
	}

	if _, err := a.snapshots.SaveSnapshot(ctx, stamped.Key, string(stamped.Body)); err != nil {
		return nil, errors.Wrap(err, "failed to save snapshot")
	}

	return &JobResult{
		Selector:   sel,
		Key:        stamped.Key,
		Version:    stamped.Version,
		Files:      len(files),
		DataPoints: res.DataPoints,
		Stats:      len(res.Stats),
		Dropped:    res.Dropped,
	}, nil
}

// RunJob runs a single selector with metrics, tracing and error reporting.
// ErrNoData is reported as an outcome, not as a failure.
func (a *Aggregate) RunJob(ctx context.Context, sel model.Selector) (*JobResult, error) {
	ctx, span := a.tracer.Start(ctx, "aggregate.job", trace.WithAttributes(
		attribute.String("bgstats.entity", string(sel.Entity)),
		attribute.String("bgstats.time_period", string(sel.TimePeriod)),
		attribute.Int("bgstats.mmr_percentile", sel.MmrPercentile),
		attribute.String("bgstats.filter", sel.Filter.Key()),
	))
	defer span.End()

	start := time.Now()
	res, err := a.RunSelector(ctx, sel)
	observability.AggregateJobDuration.WithLabelValues(string(sel.Entity), string(sel.TimePeriod)).Observe(time.Since(start).Seconds())

	logger := log.With().
		Str("evt.name", "aggregate.job").
		Str("selector", sel.String()).
		Dur("duration", time.Since(start)).
		Logger()

	switch {
	case err == nil:
		observability.AggregateJobs.WithLabelValues(string(sel.Entity), observability.OutcomeSuccess).Inc()
		span.SetStatus(codes.Ok, "")
		logger.Debug().
			Int("files", res.Files).
			Int("dataPoints", res.DataPoints).
			Int("stats", res.Stats).
			Int("dropped", res.Dropped).
			Str("version", res.Version).
			Msg("selector aggregated")
	case errors.Is(err, ErrNoData):
		observability.AggregateJobs.WithLabelValues(string(sel.Entity), observability.OutcomeNoData).Inc()
		logger.Debug().Msg("no shard data, artifact left untouched")
	default:
		observability.AggregateJobs.WithLabelValues(string(sel.Entity), observability.OutcomeFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("selector aggregation failed")
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("selector", sel.String())
			sentry.CaptureException(err)
		})
	}
	return res, err
}

// RunAll runs every selector of entity as independent jobs. A failing job is
// logged and counted and never stops the others.
func (a *Aggregate) RunAll(ctx context.Context, entity shard.Entity) (Summary, error) {
	summary := Summary{Entity: entity}
	selectors, err := a.Selectors(ctx, entity)
	if err != nil {
		return summary, err
	}
	summary.Total = len(selectors)

	ctx, span := a.tracer.Start(ctx, "aggregate.sweep", trace.WithAttributes(
		attribute.String("bgstats.entity", string(entity)),
		attribute.Int("bgstats.selectors", len(selectors)),
	))
	defer span.End()

	outcomes := make([]error, len(selectors))
	eg, egCtx := errgroup.WithContext(ctx)
	if a.opts.Concurrency > 0 {
		eg.SetLimit(a.opts.Concurrency)
	}
	for i, sel := range selectors {
		i, sel := i, sel
		eg.Go(func() error {
			if egCtx.Err() != nil {
				outcomes[i] = egCtx.Err()
				return nil
			}
			_, outcomes[i] = a.RunJob(egCtx, sel)
			return nil
		})
	}
	_ = eg.Wait()

	for _, err := range outcomes {
		switch {
		case err == nil:
			summary.Succeeded++
		case errors.Is(err, ErrNoData):
			summary.NoData++
		default:
			summary.Failed++
		}
	}

	log.Info().
		Str("evt.name", "aggregate.sweep").
		Str("entity", string(entity)).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("noData", summary.NoData).
		Int("failed", summary.Failed).
		Msg("sweep finished")

	return summary, ctx.Err()
}
