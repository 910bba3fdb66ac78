package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/timewindow"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/async"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
	"exusiai.dev/bgstats/internal/pkg/observability"
)

const (
	GranularityHourly = "hourly"
	GranularityDaily  = "daily"

	shardExt = ".gz.json"
)

// ShardRef locates one shard object.
type ShardRef struct {
	Key    string
	Stamp  time.Time
	Hourly bool
}

type ShardStoreOptions struct {
	Prefix        string
	Concurrency   int
	RetryAttempts uint
	CacheTTL      time.Duration
	// Now is the clock deciding which hourly shards may still change.
	Now func() time.Time
}

func ShardStoreOptionsFromConfig(conf *appconfig.Config) ShardStoreOptions {
	return ShardStoreOptions{
		Prefix:        conf.ShardPrefix,
		Concurrency:   conf.LoaderConcurrency,
		RetryAttempts: conf.RetryAttempts,
		CacheTTL:      conf.ShardCacheTTL,
		Now:           time.Now,
	}
}

// ShardStore loads the shards of one entity type from the bucket.
type ShardStore[T shard.Entry] struct {
	bucket  blobstore.Bucket
	adapter *shard.Adapter[T]
	opts    ShardStoreOptions

	cache *cache.Cache
}

func NewShardStore[T shard.Entry](bucket blobstore.Bucket, adapter *shard.Adapter[T], opts ShardStoreOptions) *ShardStore[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	return &ShardStore[T]{
		bucket:  bucket,
		adapter: adapter,
		opts:    opts,
		cache:   cache.New(opts.CacheTTL, opts.CacheTTL*2),
	}
}

func (s *ShardStore[T]) Entity() shard.Entity {
	return s.adapter.Entity()
}

func filterSegment(filter model.Filter) string {
	if filter.IsAll() {
		return ""
	}
	if filter.Anomaly != "" {
		return filter.Key() + "/"
	}
	return "tribes-" + filter.Key() + "/"
}

// Key builds the object key of a shard, e.g.
// api/bgs/hero-stats/tribes-1-2-3-4-5/mmr-25/hourly/2024-03-10T05:00:00.000Z.gz.json
func (s *ShardStore[T]) Key(granularity string, stamp time.Time, mmrPercentile int, filter model.Filter) string {
	return fmt.Sprintf("%s/%s/%smmr-%d/%s/%s%s",
		s.opts.Prefix,
		s.adapter.Entity().Folder(),
		filterSegment(filter),
		mmrPercentile,
		granularity,
		timewindow.Stamp(stamp),
		shardExt,
	)
}

// Refs lists the shards covering w, days first, both in chronological order.
func (s *ShardStore[T]) Refs(w timewindow.Window, mmrPercentile int, filter model.Filter) []ShardRef {
	refs := make([]ShardRef, 0, w.Len())
	for _, d := range w.Days {
		refs = append(refs, ShardRef{Key: s.Key(GranularityDaily, d, mmrPercentile, filter), Stamp: d})
	}
	for _, h := range w.Hours {
		refs = append(refs, ShardRef{Key: s.Key(GranularityHourly, h, mmrPercentile, filter), Stamp: h, Hourly: true})
	}
	return refs
}

// cacheable tells whether the shard can no longer be rewritten upstream.
func (s *ShardStore[T]) cacheable(ref ShardRef) bool {
	if s.opts.CacheTTL <= 0 {
		return false
	}
	span := 24 * time.Hour
	if ref.Hourly {
		span = time.Hour
	}
	return !ref.Stamp.Add(span).After(s.opts.Now())
}

// Load fetches and decodes every shard of the window. Missing shards are
// left out, as are files that cannot be decoded. The returned files keep the
// chronological order of Refs.
func (s *ShardStore[T]) Load(ctx context.Context, w timewindow.Window, mmrPercentile int, filter model.Filter) ([]*shard.File[T], error) {
	refs := s.Refs(w, mmrPercentile, filter)
	results, err := async.Map(refs, s.opts.Concurrency, func(ref ShardRef) (*shard.File[T], error) {
		return s.loadOne(ctx, ref)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shards")
	}
	return lo.Compact(results), nil
}

func (s *ShardStore[T]) loadOne(ctx context.Context, ref ShardRef) (*shard.File[T], error) {
	if cached, ok := s.cache.Get(ref.Key); ok {
		return cached.(*shard.File[T]), nil
	}

	entity := string(s.adapter.Entity())
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = s.bucket.Get(ctx, ref.Key)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.RetryAttempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, blobstore.ErrObjectNotFound)
		}),
	)
	if errors.Is(err, blobstore.ErrObjectNotFound) {
		log.Trace().
			Str("evt.name", "shard.missing").
			Str("key", ref.Key).
			Msg("shard not found, skipping")
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to get shard %s", ref.Key)
	}

	f, err := s.adapter.Parse(body)
	if err != nil {
		observability.ShardParseErrors.WithLabelValues(entity, "malformed").Inc()
		log.Warn().
			Err(err).
			Str("evt.name", "shard.parse_error").
			Str("key", ref.Key).
			Msg("failed to parse shard, skipping")
		return nil, nil
	}
	for reason, n := range f.SkipReasons {
		observability.ShardParseErrors.WithLabelValues(entity, reason).Add(float64(n))
	}
	observability.ShardsLoaded.WithLabelValues(entity).Inc()

	if s.cacheable(ref) {
		s.cache.SetDefault(ref.Key, f)
	}
	return f, nil
}

// ShardStores bundles one store per entity type.
type ShardStores struct {
	Hero    *ShardStore[shard.Hero]
	Quest   *ShardStore[shard.Quest]
	Reward  *ShardStore[shard.Reward]
	Trinket *ShardStore[shard.Trinket]
	Card    *ShardStore[shard.Card]
}

func NewShardStores(bucket blobstore.Bucket, conf *appconfig.Config) *ShardStores {
	return NewShardStoresWithOptions(bucket, ShardStoreOptionsFromConfig(conf))
}

func NewShardStoresWithOptions(bucket blobstore.Bucket, opts ShardStoreOptions) *ShardStores {
	return &ShardStores{
		Hero:    NewShardStore(bucket, shard.NewHeroAdapter(), opts),
		Quest:   NewShardStore(bucket, shard.NewQuestAdapter(), opts),
		Reward:  NewShardStore(bucket, shard.NewRewardAdapter(), opts),
		Trinket: NewShardStore(bucket, shard.NewTrinketAdapter(), opts),
		Card:    NewShardStore(bucket, shard.NewCardAdapter(), opts),
	}
}
