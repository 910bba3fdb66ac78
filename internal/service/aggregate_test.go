package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"exusiai.dev/bgstats/internal/core/entitymerge"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/timewindow"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
	"exusiai.dev/bgstats/internal/repo"
)

var aggregateNow = time.Date(2024, 3, 10, 5, 42, 0, 0, time.UTC)

type fixedPatch struct {
	patch *model.Patch
}

func (f fixedPatch) Active(context.Context) (*model.Patch, error) {
	return f.patch, nil
}

type fixedContent struct {
	tribes    []int
	anomalies []string
}

func (f fixedContent) Tribes(context.Context) ([]int, error) {
	return f.tribes, nil
}

func (f fixedContent) Anomalies(context.Context) ([]string, error) {
	return f.anomalies, nil
}

type aggregateFixture struct {
	bucket    *blobstore.Memory
	shards    *repo.ShardStores
	artifacts *repo.Artifact
	snapshots *memorySnapshots
	agg       *Aggregate
}

func newAggregateFixture(t *testing.T, content fixedContent, exclusion string) *aggregateFixture {
	t.Helper()
	bucket := blobstore.NewMemory()
	f := &aggregateFixture{
		bucket: bucket,
		shards: repo.NewShardStoresWithOptions(bucket, repo.ShardStoreOptions{
			Prefix:      "api/bgs",
			Concurrency: 4,
			Now:         func() time.Time { return aggregateNow },
		}),
		artifacts: repo.NewArtifactWithPrefix(bucket, "api/bgs/stats", 1),
		snapshots: &memorySnapshots{},
	}
	agg, err := NewAggregateWith(f.shards, f.artifacts, NewSnapshotWithStore(f.snapshots),
		fixedPatch{patch: &model.Patch{Number: 200614, Date: time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)}},
		content,
		AggregateOptions{
			Concurrency:   4,
			ExclusionExpr: exclusion,
			Merge:         entitymerge.DefaultOptions(),
			Now:           func() time.Time { return aggregateNow },
		})
	require.NoError(t, err)
	f.agg = agg
	return f
}

func heroShardBody(updated time.Time, mmr int, heroes map[string]int) []byte {
	stats := ""
	for id, dp := range heroes {
		if stats != "" {
			stats += ","
		}
		stats += fmt.Sprintf(`{"heroCardId": %q, "mmrPercentile": 100, "dataPoints": %d, "averagePosition": 4.5}`, id, dp)
	}
	return []byte(fmt.Sprintf(`{
		"lastUpdateDate": %q,
		"mmrPercentiles": [{"percentile": 100, "mmr": 0}, {"percentile": 50, "mmr": %d}],
		"heroStats": [%s]
	}`, updated.Format(time.RFC3339Nano), mmr, stats))
}

func (f *aggregateFixture) putHeroDay(t *testing.T, day time.Time, mmr int, heroes map[string]int) {
	t.Helper()
	key := f.shards.Hero.Key(repo.GranularityDaily, day, 100, model.Filter{})
	require.NoError(t, f.bucket.PutGzip(context.Background(), key, heroShardBody(day.Add(23*time.Hour), mmr, heroes)))
}

func TestAggregateRunSelector(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture(t, fixedContent{}, `key == "TB_BaconShop_HERO_PH" || key startsWith "BG_BANNED"`)

	f.putHeroDay(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), 6000, map[string]int{"BG_A": 100, "BG_BANNED_1": 50})
	f.putHeroDay(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 6200, map[string]int{"BG_A": 60, "TB_BaconShop_HERO_PH": 10})

	sel := model.Selector{Entity: shard.EntityHero, TimePeriod: model.TimePeriodPastThree, MmrPercentile: 100}
	res, err := f.agg.RunSelector(ctx, sel)
	require.NoError(t, err)
	spew.Dump(res)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 1, res.Stats, "excluded heroes never reach the output")
	assert.Equal(t, 160, res.DataPoints)

	body, err := f.artifacts.Get(ctx, f.artifacts.StatsKey(sel))
	require.NoError(t, err)
	assert.Equal(t, res.Version, gjson.GetBytes(body, "version").String())
	assert.Equal(t, "BG_A", gjson.GetBytes(body, "stats.0.heroCardId").String())
	assert.Equal(t, int64(160), gjson.GetBytes(body, "stats.0.dataPoints").Int())
	assert.Equal(t, "all", gjson.GetBytes(body, "filter").String())
	assert.Equal(t, int64(6200), gjson.GetBytes(body, "mmrPercentiles.1.mmr").Int(), "the most recent table wins")

	percentiles, err := f.artifacts.Get(ctx, f.artifacts.PercentileKey(shard.EntityHero, model.TimePeriodPastThree))
	require.NoError(t, err)
	assert.Equal(t, int64(6200), gjson.GetBytes(percentiles, "mmrPercentiles.1.mmr").Int())

	require.Len(t, f.snapshots.rows, 1)
	assert.Equal(t, res.Key, f.snapshots.rows[0].Key)
	assert.Equal(t, res.Version, f.snapshots.rows[0].Version)

	// unchanged input leaves the snapshot history alone
	_, err = f.agg.RunSelector(ctx, sel)
	require.NoError(t, err)
	assert.Len(t, f.snapshots.rows, 1)
}

func TestAggregateRunSelectorNoData(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture(t, fixedContent{}, "")

	sel := model.Selector{Entity: shard.EntityQuest, TimePeriod: model.TimePeriodAllTime, MmrPercentile: 50}
	_, err := f.agg.RunSelector(ctx, sel)
	assert.ErrorIs(t, err, ErrNoData)

	exists, err := f.bucket.Exists(ctx, f.artifacts.StatsKey(sel))
	require.NoError(t, err)
	assert.False(t, exists, "a selector without data must not overwrite its artifact")
	assert.Empty(t, f.snapshots.rows)
}

func TestAggregateRunSelectorNoQualifyingEntries(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture(t, fixedContent{}, "")

	day := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	key := f.shards.Hero.Key(repo.GranularityDaily, day, 100, model.Filter{})
	require.NoError(t, f.bucket.PutGzip(ctx, key, []byte(`{
		"lastUpdateDate": "2024-03-08T23:00:00.000Z",
		"heroStats": [
			{"foo": 1},
			{"heroCardId": "TB_BaconShop_HERO_PH", "mmrPercentile": 100, "dataPoints": 40, "averagePosition": 4.5}
		]
	}`)))

	sel := model.Selector{Entity: shard.EntityHero, TimePeriod: model.TimePeriodPastThree, MmrPercentile: 100}
	res, err := f.agg.RunSelector(ctx, sel)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, res)

	exists, err := f.bucket.Exists(ctx, f.artifacts.StatsKey(sel))
	require.NoError(t, err)
	assert.False(t, exists, "an empty merge must not overwrite the last artifact")
	assert.Empty(t, f.snapshots.rows)
}

func TestAggregateRunSelectorRejectsInvalid(t *testing.T) {
	f := newAggregateFixture(t, fixedContent{}, "")
	_, err := f.agg.RunSelector(context.Background(), model.Selector{
		Entity:        shard.EntityTrinket,
		TimePeriod:    model.TimePeriodAllTime,
		MmrPercentile: 100,
		Filter:        model.AnomalyFilter("BG27_Anomaly_100"),
	})
	assert.Error(t, err)
}

func TestAggregateSelectors(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture(t, fixedContent{tribes: []int{1, 2, 3, 4, 5, 6}, anomalies: []string{"BG27_Anomaly_100"}}, "")

	heroes, err := f.agg.Selectors(ctx, shard.EntityHero)
	require.NoError(t, err)
	// all + C(6,5) tribe subsets + one anomaly, per period and band
	assert.Len(t, heroes, 4*5*(1+6+1))
	assert.True(t, heroes[0].Filter.IsAll())

	quests, err := f.agg.Selectors(ctx, shard.EntityQuest)
	require.NoError(t, err)
	assert.Len(t, quests, 4*5)
	for _, s := range quests {
		assert.True(t, s.Filter.IsAll())
	}

	_, err = f.agg.Selectors(ctx, shard.Entity("minion"))
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestAggregateRunAll(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture(t, fixedContent{}, "")
	f.putHeroDay(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 6000, map[string]int{"BG_A": 100})

	summary, err := f.agg.RunAll(ctx, shard.EntityHero)
	require.NoError(t, err)

	// only band 100 has a shard, and every period covers 2024-03-09
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 16, summary.NoData)
	assert.Zero(t, summary.Failed)

	for _, period := range model.TimePeriods {
		exists, err := f.bucket.Exists(ctx, f.artifacts.StatsKey(model.Selector{Entity: shard.EntityHero, TimePeriod: period, MmrPercentile: 100}))
		require.NoError(t, err)
		assert.True(t, exists, period)
	}
}

func TestAggregateRejectsBadExclusion(t *testing.T) {
	_, err := NewAggregateWith(nil, nil, nil, nil, nil, AggregateOptions{ExclusionExpr: "key +"})
	assert.Error(t, err)
}

func TestAggregateLastPatchWindow(t *testing.T) {
	f := newAggregateFixture(t, fixedContent{}, "")
	w, err := f.agg.window(context.Background(), model.TimePeriodLastPatch)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), w.Days[0])
	assert.Equal(t, timewindow.Stamp(time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)), timewindow.Stamp(w.Hours[0]))
}
