package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingularMutexGetSet(t *testing.T) {
	c := NewSingular[[]string]("anomalies")

	_, err := c.Get()
	assert.ErrorIs(t, err, ErrNotFound)

	var (
		mu    sync.Mutex
		calls int
		wg    sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.MutexGetSet(func() ([]string, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return []string{"BG27_Anomaly_101"}, nil
			}, time.Minute)
			assert.NoError(t, err)
			assert.Equal(t, []string{"BG27_Anomaly_101"}, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)

	c.Delete()
	_, err = c.MutexGetSet(func() ([]string, error) { return nil, errors.New("boom") }, time.Minute)
	require.Error(t, err)
	_, err = c.Get()
	assert.ErrorIs(t, err, ErrNotFound, "failed computations are not cached")
}
