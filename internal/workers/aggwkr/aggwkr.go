package aggwkr

import (
	"context"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/jetstream"
	"exusiai.dev/bgstats/internal/pkg/observability"
	"exusiai.dev/bgstats/internal/service"
	"exusiai.dev/bgstats/internal/util/rekuest"
)

const (
	ackWait          = 2 * time.Minute
	inProgressPeriod = 30 * time.Second
	channelBuffer    = 4
)

type runner interface {
	RunJob(ctx context.Context, sel model.Selector) (*service.JobResult, error)
}

type WorkerDeps struct {
	fx.In
	Aggregate *service.Aggregate
	JetStream nats.JetStreamContext
}

// disposition tells how a consumed message is settled.
type disposition int

const (
	dispositionAck disposition = iota
	// redeliver later
	dispositionNak
	// never redeliver
	dispositionTerm
)

type Worker struct {
	// count is the number of consumers
	count int

	timeout       time.Duration
	maxAckPending int
	runner        runner
	js            nats.JetStreamContext
}

func Start(conf *appconfig.Config, deps WorkerDeps) {
	if !conf.WorkerEnabled {
		return
	}

	ch := make(chan error)
	// handle & dump errors from consumers
	go func() {
		for {
			err := <-ch
			if err != nil {
				log.Error().Err(err).Str("evt.name", "aggwkr.error").Msg("aggregate worker error")
			}
		}
	}()

	w := &Worker{
		timeout:       conf.WorkerTimeout,
		maxAckPending: conf.WorkerConcurrency * channelBuffer,
		runner:        deps.Aggregate,
		js:            deps.JetStream,
	}
	for i := 0; i < conf.WorkerConcurrency; i++ {
		go func() {
			if err := w.Consumer(context.Background(), ch); err != nil {
				ch <- err
			}
		}()
		w.count++
	}
}

func (w *Worker) Consumer(ctx context.Context, ch chan error) error {
	msgChan := make(chan *nats.Msg, channelBuffer)

	_, err := w.js.ChanQueueSubscribe(jetstream.AggregateSubjects, jetstream.ConsumerGroup, msgChan,
		nats.AckWait(ackWait),
		nats.MaxAckPending(w.maxAckPending),
		nats.ManualAck(),
	)
	if err != nil {
		log.Err(err).Msg("failed to subscribe to " + jetstream.AggregateSubjects)
		return err
	}

	for {
		select {
		case msg := <-msgChan:
			w.consume(ctx, msg, ch)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Worker) consume(ctx context.Context, msg *nats.Msg, ch chan error) {
	taskCtx, cancelTask := context.WithTimeout(ctx, w.timeout)
	informer := time.NewTicker(inProgressPeriod)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-informer.C:
				if err := msg.InProgress(); err != nil {
					log.Error().Err(err).Msg("failed to set msg InProgress")
				}
			case <-done:
				return
			}
		}
	}()
	defer func() {
		informer.Stop()
		close(done)
		cancelTask()
	}()

	var settle func(...nats.AckOpt) error
	switch d, err := w.handle(taskCtx, msg.Data); d {
	case dispositionAck:
		settle = msg.Ack
	case dispositionNak:
		ch <- err
		settle = msg.Nak
	case dispositionTerm:
		ch <- err
		settle = msg.Term
	}
	if err := settle(); err != nil {
		log.Error().Err(err).Msg("failed to settle message")
	}
}

// handle decodes and runs one job. Jobs that can never succeed are
// terminated; failed runs are redelivered.
func (w *Worker) handle(ctx context.Context, data []byte) (disposition, error) {
	job := &model.AggregateJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return dispositionTerm, errors.Wrap(err, "failed to decode aggregate job")
	}
	if err := rekuest.ValidStruct(job); err != nil {
		return dispositionTerm, errors.Wrapf(err, "invalid aggregate job: %s", spew.Sdump(job))
	}
	sel, err := job.Selector()
	if err != nil {
		return dispositionTerm, errors.Wrap(err, "invalid aggregate job selector")
	}
	if !job.IssuedAt.IsZero() {
		observability.JobConsumeMessagingLatency.WithLabelValues().Observe(time.Since(job.IssuedAt).Seconds())
	}

	res, err := w.runner.RunJob(ctx, sel)
	switch {
	case err == nil:
		log.Info().
			Str("evt.name", "aggwkr.job_done").
			Str("jobId", job.ID).
			Str("selector", sel.String()).
			Str("version", res.Version).
			Msg("aggregate job processed successfully")
		return dispositionAck, nil
	case errors.Is(err, service.ErrNoData):
		return dispositionAck, nil
	default:
		return dispositionNak, errors.Wrapf(err, "aggregate job %s failed", job.ID)
	}
}
