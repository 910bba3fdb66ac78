package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/bgstats/internal/pkg/blobstore"
)

func TestContentPool(t *testing.T) {
	ctx := context.Background()
	bucket := blobstore.NewMemory()
	for _, key := range []string{
		"api/bgs/hero-stats/mmr-100/daily/x.gz.json",
		"api/bgs/hero-stats/tribes-12-14-17-18-20/mmr-100/daily/x.gz.json",
		"api/bgs/hero-stats/tribes-11-12-14-17-18/mmr-100/daily/x.gz.json",
		"api/bgs/hero-stats/tribes-not-a-key/mmr-100/daily/x.gz.json",
		"api/bgs/hero-stats/anomaly-BG27_Anomaly_900/mmr-100/daily/x.gz.json",
		"api/bgs/hero-stats/anomaly-BG27_Anomaly_102/mmr-100/daily/x.gz.json",
		"api/bgs/quest-stats/anomaly-ignored/mmr-100/daily/x.gz.json",
	} {
		bucket.PutRaw(key, []byte("{}"))
	}

	pool := NewContentPoolWithPrefix(bucket, "api/bgs")
	tribes, err := pool.Tribes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 14, 17, 18, 20}, tribes)

	anomalies, err := pool.Anomalies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BG27_Anomaly_102", "BG27_Anomaly_900"}, anomalies)

	bucket.PutRaw("api/bgs/hero-stats/anomaly-BG27_Anomaly_999/mmr-100/daily/x.gz.json", []byte("{}"))
	anomalies, err = pool.Anomalies(ctx)
	require.NoError(t, err)
	assert.Len(t, anomalies, 2, "listing is cached")

	pool.Invalidate()
	anomalies, err = pool.Anomalies(ctx)
	require.NoError(t, err)
	assert.Len(t, anomalies, 3)
}
