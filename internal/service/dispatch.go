package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/jetstream"
)

const publishAckTimeout = 5 * time.Second

// Dispatch publishes aggregate jobs to the job stream so that any worker
// replica may pick them up.
type Dispatch struct {
	js        nats.JetStreamContext
	aggregate *Aggregate
	now       func() time.Time
}

func NewDispatch(js nats.JetStreamContext, aggregate *Aggregate) *Dispatch {
	return &Dispatch{js: js, aggregate: aggregate, now: time.Now}
}

func newJobID() string {
	return ulid.Make().String()
}

// Publish enqueues one selector and returns the published job. The job id
// doubles as the message id, so a retried publish is deduplicated by the
// stream.
func (s *Dispatch) Publish(ctx context.Context, sel model.Selector) (*model.AggregateJob, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	job := model.JobFromSelector(newJobID(), sel, s.now().UTC())

	body, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode aggregate job")
	}

	pub, err := s.js.PublishAsync(jetstream.AggregateSubject(string(sel.Entity)), body, nats.MsgId(job.ID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to publish aggregate job")
	}

	select {
	case err := <-pub.Err():
		return nil, err
	case <-pub.Ok():
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(publishAckTimeout):
		return nil, errors.New("timeout waiting for NATS response")
	}
}

// PublishAll enqueues every selector of entity and returns the number of
// jobs published before the first failure.
func (s *Dispatch) PublishAll(ctx context.Context, entity shard.Entity) (int, error) {
	selectors, err := s.aggregate.Selectors(ctx, entity)
	if err != nil {
		return 0, err
	}
	for i, sel := range selectors {
		if _, err := s.Publish(ctx, sel); err != nil {
			return i, errors.Wrapf(err, "failed to publish %s", sel)
		}
	}

	log.Info().
		Str("evt.name", "dispatch.published").
		Str("entity", string(entity)).
		Int("jobs", len(selectors)).
		Msg("aggregate jobs published")

	return len(selectors), nil
}
