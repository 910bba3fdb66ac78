package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	body := []byte(`{"heroStats":[]}`)
	compressed, err := Compress(body)
	require.NoError(t, err)
	assert.NotEqual(t, body, compressed)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, body, decompressed)

	plain, err := Decompress(body)
	require.NoError(t, err)
	assert.Equal(t, body, plain, "uncompressed bodies pass through")
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, m.PutGzip(ctx, "api/bgs/hero-stats/mmr-100/daily/a.gz.json", []byte("{}")))
	require.NoError(t, m.PutGzip(ctx, "api/bgs/hero-stats/anomaly-X/mmr-100/daily/a.gz.json", []byte("{}")))
	m.PutRaw("api/bgs/quest-stats/mmr-100/daily/a.gz.json", []byte("[]"))

	body, err := m.Get(ctx, "api/bgs/hero-stats/mmr-100/daily/a.gz.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, 1, m.Gets["api/bgs/hero-stats/mmr-100/daily/a.gz.json"])

	ok, err := m.Exists(ctx, "api/bgs/quest-stats/mmr-100/daily/a.gz.json")
	require.NoError(t, err)
	assert.True(t, ok)

	children, err := m.ListPrefixes(ctx, "api/bgs/hero-stats")
	require.NoError(t, err)
	assert.Equal(t, []string{"anomaly-X", "mmr-100"}, children)

	children, err = m.ListPrefixes(ctx, "api/bgs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"hero-stats", "quest-stats"}, children)
}
