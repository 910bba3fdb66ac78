package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/tribeset"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
)

func TestArtifactKeys(t *testing.T) {
	a := NewArtifactWithPrefix(blobstore.NewMemory(), "api/bgs/stats", 1)
	assert.Equal(t,
		"api/bgs/stats/hero-stats/tribes-1-2-3-4-5/mmr-25/last-patch/overview-from-hourly.gz.json",
		a.StatsKey(model.Selector{
			Entity:        shard.EntityHero,
			TimePeriod:    model.TimePeriodLastPatch,
			MmrPercentile: 25,
			Filter:        model.TribeFilter(tribeset.Subset{1, 2, 3, 4, 5}),
		}))
	assert.Equal(t,
		"api/bgs/stats/reward-stats/mmr-100/all-time/overview-from-hourly.gz.json",
		a.StatsKey(model.Selector{Entity: shard.EntityReward, TimePeriod: model.TimePeriodAllTime, MmrPercentile: 100}))
	assert.Equal(t, "api/bgs/stats/hero-stats/past-three/mmr-percentiles.gz.json", a.PercentileKey(shard.EntityHero, model.TimePeriodPastThree))
}

func TestArtifactPutStampsVersion(t *testing.T) {
	ctx := context.Background()
	bucket := blobstore.NewMemory()
	a := NewArtifactWithPrefix(bucket, "stats", 1)

	payload := map[string]any{"dataPoints": 10, "stats": []int{1, 2}}
	first, err := a.Put(ctx, "stats/a.gz.json", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Version)
	assert.Equal(t, first.Version, gjson.GetBytes(first.Body, "version").String())

	body, err := a.Get(ctx, "stats/a.gz.json")
	require.NoError(t, err)
	assert.Equal(t, first.Body, body)

	again, err := a.Put(ctx, "stats/a.gz.json", payload)
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version, "same content, same version")

	payload["dataPoints"] = 11
	changed, err := a.Put(ctx, "stats/a.gz.json", payload)
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, changed.Version)
}
