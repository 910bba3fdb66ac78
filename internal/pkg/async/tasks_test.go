package async

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsOrder(t *testing.T) {
	src := []int{5, 4, 3, 2, 1}
	res, err := Map(src, 2, func(i int) (int, error) {
		time.Sleep(time.Duration(i) * time.Millisecond)
		return i * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 40, 30, 20, 10}, res)
}

func TestMapConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	_, err := Map(make([]int, 20), 3, func(int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestMapCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	res, err := Map([]int{1, 2, 3, 4}, 0, func(i int) (int, error) {
		if i%2 == 0 {
			return 0, boom
		}
		return i, nil
	})
	require.Error(t, err)
	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs.E, 2)
	assert.Equal(t, []int{1, 3}, res)

	empty, err := Map([]int{}, 4, func(i int) (int, error) { return i, nil })
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWaitAll(t *testing.T) {
	assert.NoError(t, WaitAll(Errable(func() error { return nil })))
	err := WaitAll(
		Errable(func() error { return nil }),
		Errable(func() error { return errors.New("redis down") }),
	)
	assert.EqualError(t, err, "redis down")
}
