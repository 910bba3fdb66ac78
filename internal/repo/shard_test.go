package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/timewindow"
	"exusiai.dev/bgstats/internal/core/tribeset"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
)

var now = time.Date(2024, 3, 10, 5, 42, 0, 0, time.UTC)

func heroShard(updated time.Time, heroID string, dataPoints int, avg float64) []byte {
	return []byte(fmt.Sprintf(`{
		"lastUpdateDate": %q,
		"mmrPercentiles": [{"percentile": 100, "mmr": 0}],
		"heroStats": [{"heroCardId": %q, "mmrPercentile": 100, "dataPoints": %d, "averagePosition": %v}]
	}`, updated.Format(time.RFC3339Nano), heroID, dataPoints, avg))
}

func newTestStore(bucket blobstore.Bucket) *ShardStore[shard.Hero] {
	return NewShardStore(bucket, shard.NewHeroAdapter(), ShardStoreOptions{
		Prefix:        "api/bgs",
		Concurrency:   4,
		RetryAttempts: 2,
		CacheTTL:      time.Hour,
		Now:           func() time.Time { return now },
	})
}

func TestShardKeys(t *testing.T) {
	s := newTestStore(blobstore.NewMemory())
	stamp := time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC)

	type testCase struct {
		filter model.Filter
		want   string
	}
	testCases := []testCase{
		{filter: model.Filter{}, want: "api/bgs/hero-stats/mmr-25/hourly/2024-03-10T05:00:00.000Z.gz.json"},
		{filter: model.TribeFilter(tribeset.Subset{1, 2, 3, 4, 5}), want: "api/bgs/hero-stats/tribes-1-2-3-4-5/mmr-25/hourly/2024-03-10T05:00:00.000Z.gz.json"},
		{filter: model.AnomalyFilter("BG27_Anomaly_100"), want: "api/bgs/hero-stats/anomaly-BG27_Anomaly_100/mmr-25/hourly/2024-03-10T05:00:00.000Z.gz.json"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, s.Key(GranularityHourly, stamp, 25, tc.filter))
	}

	rewards := NewShardStore(blobstore.NewMemory(), shard.NewRewardAdapter(), ShardStoreOptions{Prefix: "api/bgs"})
	assert.Equal(t, "api/bgs/quest-stats/mmr-100/daily/2024-03-09T00:00:00.000Z.gz.json",
		rewards.Key(GranularityDaily, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 100, model.Filter{}))
}

func TestShardLoadSkipsMissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	bucket := blobstore.NewMemory()
	s := newTestStore(bucket)

	w, err := timewindow.Resolve(model.TimePeriodPastThree, now, nil)
	require.NoError(t, err)
	refs := s.Refs(w, 100, model.Filter{})
	require.Len(t, refs, 2+6)

	// day 1 and hour 3 present, day 2 malformed, the rest missing
	require.NoError(t, bucket.PutGzip(ctx, refs[0].Key, heroShard(now.Add(-48*time.Hour), "BG_A", 10, 4)))
	require.NoError(t, bucket.PutGzip(ctx, refs[1].Key, []byte(`{"heroStats": {}}`)))
	require.NoError(t, bucket.PutGzip(ctx, refs[5].Key, heroShard(now.Add(-time.Hour), "BG_B", 20, 5)))

	files, err := s.Load(ctx, w, 100, model.Filter{})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "BG_A", files[0].Entries[0].HeroCardID, "files keep chronological order")
	assert.Equal(t, "BG_B", files[1].Entries[0].HeroCardID)
}

func TestShardLoadCachesSettledShards(t *testing.T) {
	ctx := context.Background()
	bucket := blobstore.NewMemory()
	s := newTestStore(bucket)

	w, err := timewindow.Resolve(model.TimePeriodPastThree, now, nil)
	require.NoError(t, err)
	refs := s.Refs(w, 100, model.Filter{})
	daily, current := refs[0], refs[len(refs)-1]
	require.NoError(t, bucket.PutGzip(ctx, daily.Key, heroShard(now, "BG_A", 10, 4)))
	require.NoError(t, bucket.PutGzip(ctx, current.Key, heroShard(now, "BG_A", 10, 4)))

	for i := 0; i < 3; i++ {
		_, err := s.Load(ctx, w, 100, model.Filter{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, bucket.Gets[daily.Key], "daily shards are immutable")
	assert.Equal(t, 3, bucket.Gets[current.Key], "the running hour is always refetched")
}

type flakyBucket struct {
	*blobstore.Memory
	failures int
}

func (f *flakyBucket) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("connection reset")
	}
	return f.Memory.Get(ctx, key)
}

func TestShardLoadRetries(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemory()
	bucket := &flakyBucket{Memory: mem, failures: 1}
	s := NewShardStore(bucket, shard.NewHeroAdapter(), ShardStoreOptions{Prefix: "api/bgs", Concurrency: 1, RetryAttempts: 2, Now: func() time.Time { return now }})

	w := timewindow.Window{Days: []time.Time{time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}}
	require.NoError(t, mem.PutGzip(ctx, s.Refs(w, 100, model.Filter{})[0].Key, heroShard(now, "BG_A", 10, 4)))

	files, err := s.Load(ctx, w, 100, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, files, 1)

	bucket.failures = 5
	s = NewShardStore(bucket, shard.NewHeroAdapter(), ShardStoreOptions{Prefix: "api/bgs", Concurrency: 1, RetryAttempts: 2, Now: func() time.Time { return now }})
	_, err = s.Load(ctx, w, 100, model.Filter{})
	assert.Error(t, err, "persistent storage failures fail the load")
}
