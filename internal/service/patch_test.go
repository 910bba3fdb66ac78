package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/bgstats/internal/model"
)

const patchInfo = `{
	"currentBattlegroundsMetaPatch": 200614,
	"patches": [
		{"number": 199000, "version": "29.0.0", "date": "2024-02-01T17:00:00.000Z"},
		{"number": 200614, "version": "29.2.0", "date": "2024-03-07T13:00:00.000Z"}
	]
}`

type staticPatchSource struct {
	body  string
	err   error
	calls int
}

func (s *staticPatchSource) Fetch(context.Context) ([]byte, error) {
	s.calls++
	return []byte(s.body), s.err
}

type memoryPatchCache struct {
	mu sync.Mutex
	m  map[string]model.Patch
}

func newMemoryPatchCache() *memoryPatchCache {
	return &memoryPatchCache{m: map[string]model.Patch{}}
}

func (c *memoryPatchCache) MutexGetSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (model.Patch, error), _ time.Duration) (model.Patch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.m[key]; ok {
		return p, nil
	}
	p, err := valueFunc(ctx)
	if err != nil {
		return p, err
	}
	c.m[key] = p
	return p, nil
}

func TestParsePatchInfo(t *testing.T) {
	p, err := ParsePatchInfo([]byte(patchInfo))
	require.NoError(t, err)
	assert.Equal(t, &model.Patch{
		Number:  200614,
		Version: "29.2.0",
		Date:    time.Date(2024, 3, 7, 13, 0, 0, 0, time.UTC),
	}, p)
}

func TestParsePatchInfoErrors(t *testing.T) {
	type testCase struct {
		name string
		body string
		want error
	}
	testCases := []testCase{
		{name: "not json", body: `<html>`, want: ErrPatchInfoMalformed},
		{name: "no current", body: `{"patches": []}`, want: ErrPatchInfoMalformed},
		{name: "not listed", body: `{"currentBattlegroundsMetaPatch": 1, "patches": [{"number": 2}]}`, want: ErrPatchNotListed},
		{name: "bad date", body: `{"currentBattlegroundsMetaPatch": 1, "patches": [{"number": 1, "date": "yesterday"}]}`, want: ErrPatchInfoMalformed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePatchInfo([]byte(tc.body))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPatchActiveIsCached(t *testing.T) {
	ctx := context.Background()
	source := &staticPatchSource{body: patchInfo}
	s := NewPatchWithSource(source, newMemoryPatchCache(), time.Minute)

	for i := 0; i < 3; i++ {
		p, err := s.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, 200614, p.Number)
	}
	assert.Equal(t, 1, source.calls)

	failing := NewPatchWithSource(&staticPatchSource{err: errors.New("timeout")}, newMemoryPatchCache(), time.Minute)
	_, err := failing.Active(ctx)
	assert.Error(t, err)
}
