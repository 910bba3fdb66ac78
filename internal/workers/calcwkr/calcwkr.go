package calcwkr

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/service"
)

const heartbeatTimeout = 10 * time.Second

type sweeper interface {
	RunAll(ctx context.Context, entity shard.Entity) (service.Summary, error)
}

type locker interface {
	LockContext(ctx context.Context) error
	UnlockContext(ctx context.Context) (bool, error)
}

type WorkerDeps struct {
	fx.In
	Aggregate *service.Aggregate
	Redsync   *redsync.Redsync
}

type Worker struct {
	// count counts sweeps the worker has completed so far
	count int

	// sep describes the separation time in-between entities of a sweep
	sep time.Duration

	// interval describes the interval in-between sweeps
	interval time.Duration

	// timeout bounds a single entity sweep
	timeout time.Duration

	entities  []shard.Entity
	heartbeat appconfig.WorkerHeartbeatURLMap

	sweeper sweeper
	lock    func(entity shard.Entity) locker
	ping    func(url string) error
}

func Start(conf *appconfig.Config, deps WorkerDeps) {
	if !conf.WorkerEnabled {
		log.Info().
			Str("evt.name", "calcwkr.disabled").
			Msg("periodic sweep disabled")
		return
	}

	entities := make([]shard.Entity, 0, len(conf.WorkerEntities))
	for _, e := range conf.WorkerEntities {
		entity := shard.Entity(e)
		if !entity.Valid() {
			log.Warn().
				Str("evt.name", "calcwkr.unknown_entity").
				Str("entity", e).
				Msg("ignoring unknown entity in worker configuration")
			continue
		}
		entities = append(entities, entity)
	}

	w := &Worker{
		sep:       conf.WorkerSeparation,
		interval:  conf.WorkerInterval,
		timeout:   conf.WorkerTimeout,
		entities:  entities,
		heartbeat: conf.WorkerHeartbeatURL,
		sweeper:   deps.Aggregate,
		lock: func(entity shard.Entity) locker {
			return deps.Redsync.NewMutex("mutex:calcwkr:"+string(entity),
				redsync.WithExpiry(conf.WorkerTimeout+time.Minute),
				redsync.WithTries(1))
		},
		ping: ping,
	}
	w.do()
}

func (w *Worker) do() context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			log.Info().
				Str("evt.name", "calcwkr.sweep_started").
				Int("count", w.count).
				Msg("worker sweep started")

			w.sweep(ctx)

			log.Info().
				Str("evt.name", "calcwkr.sweep_finished").
				Int("count", w.count).
				Msg("worker sweep finished")

			w.count++
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.interval):
			}
		}
	}()

	return cancel
}

func (w *Worker) sweep(ctx context.Context) {
	for i, entity := range w.entities {
		if i > 0 {
			time.Sleep(w.sep)
		}
		logger := log.With().Str("entity", string(entity)).Logger()

		logger.Info().Str("evt.name", "calcwkr.entity_started").Msg("worker calculating")
		summary, err := w.sweepEntity(ctx, entity)
		if err != nil {
			logger.Error().Err(err).Str("evt.name", "calcwkr.entity_failed").Msg("worker failed to sweep entity")
			continue
		}
		logger.Debug().
			Str("evt.name", "calcwkr.entity_finished").
			Int("succeeded", summary.Succeeded).
			Int("noData", summary.NoData).
			Int("failed", summary.Failed).
			Msg("worker finished")

		if summary.Failed > 0 {
			continue
		}
		if url, ok := w.heartbeat[string(entity)]; ok && url != "" {
			if err := w.ping(url); err != nil {
				logger.Warn().Err(err).Str("evt.name", "calcwkr.heartbeat_failed").Msg("failed to send heartbeat")
			}
		}
	}
}

var errLocked = errors.New("entity sweep is held by another replica")

// sweepEntity runs every selector of entity under a cluster-wide lock so that
// replicas never sweep the same entity at the same time.
func (w *Worker) sweepEntity(ctx context.Context, entity shard.Entity) (service.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	mutex := w.lock(entity)
	if err := mutex.LockContext(ctx); err != nil {
		return service.Summary{}, errors.Wrap(errLocked, err.Error())
	}
	defer func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			log.Warn().Err(err).Str("entity", string(entity)).Msg("failed to release sweep lock")
		}
	}()

	var summary service.Summary
	err := observeSweepDuration(string(entity), func() error {
		var err error
		summary, err = w.sweeper.RunAll(ctx, entity)
		return err
	})
	return summary, err
}

func ping(url string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := fasthttp.DoTimeout(req, resp, heartbeatTimeout); err != nil {
		return err
	}
	if resp.StatusCode() >= fasthttp.StatusBadRequest {
		return errors.Errorf("heartbeat responded with status %d", resp.StatusCode())
	}
	return nil
}

func (w *Worker) Count() int {
	return w.count
}
