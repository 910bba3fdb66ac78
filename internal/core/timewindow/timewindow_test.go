package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/bgstats/internal/model"
)

var now = time.Date(2024, 3, 10, 5, 42, 0, 0, time.UTC)

func TestRollingWindows(t *testing.T) {
	type testCase struct {
		period model.TimePeriod
		days   int
		first  time.Time
	}

	testCases := []testCase{
		{period: model.TimePeriodPastThree, days: 2, first: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)},
		{period: model.TimePeriodPastSeven, days: 6, first: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{period: model.TimePeriodAllTime, days: RetentionDays - 1, first: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(string(tc.period), func(t *testing.T) {
			w, err := Resolve(tc.period, now, nil)
			require.NoError(t, err)
			require.Len(t, w.Days, tc.days)
			assert.Equal(t, tc.first, w.Days[0])
			assert.Equal(t, tc.first, w.Start)
			assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), w.Days[len(w.Days)-1])

			require.Len(t, w.Hours, 6, "hours 00:00 through 05:00 of today")
			assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), w.Hours[0])
			assert.Equal(t, time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), w.Hours[5])
			assert.Equal(t, tc.days+6, w.Len())
		})
	}
}

func TestLastPatch(t *testing.T) {
	patch := &model.Patch{Number: 200614, Date: time.Date(2024, 3, 7, 13, 0, 0, 0, time.UTC)}
	w, err := Resolve(model.TimePeriodLastPatch, now, patch)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
	}, w.Days)

	// 14:00..23:00 of the release day, then 00:00..05:00 of today
	require.Len(t, w.Hours, 10+6)
	assert.Equal(t, time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC), w.Hours[0])
	assert.Equal(t, time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC), w.Hours[9])
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), w.Hours[10])
	assert.Equal(t, w.Hours[0], w.Start)
}

func TestPastThreeEndsToday(t *testing.T) {
	w, err := Resolve(model.TimePeriodPastThree, now, nil)
	require.NoError(t, err)

	// today-2 and today-1 as whole days, today as hours
	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
	}, w.Days)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), w.End)
}

func TestLastPatchReleasedToday(t *testing.T) {
	patch := &model.Patch{Date: time.Date(2024, 3, 10, 2, 15, 0, 0, time.UTC)}
	w, err := Resolve(model.TimePeriodLastPatch, now, patch)
	require.NoError(t, err)
	assert.Empty(t, w.Days)
	require.Len(t, w.Hours, 3)
	assert.Equal(t, time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC), w.Hours[0])
}

func TestLastPatchBeyondRetention(t *testing.T) {
	patch := &model.Patch{Date: time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC)}
	w, err := Resolve(model.TimePeriodLastPatch, now, patch)
	require.NoError(t, err)
	allTime, err := Resolve(model.TimePeriodAllTime, now, nil)
	require.NoError(t, err)
	assert.Equal(t, allTime.Days, w.Days)
	assert.Equal(t, allTime.Hours, w.Hours)
}

func TestErrors(t *testing.T) {
	_, err := Resolve(model.TimePeriodLastPatch, now, nil)
	assert.ErrorIs(t, err, ErrNoPatch)

	_, err = Resolve(model.TimePeriod("past-month"), now, nil)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestStamp(t *testing.T) {
	assert.Equal(t, "2024-03-10T05:00:00.000Z", Stamp(time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC)))
}
