package rekuest

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/bgerr"
)

func TestAggregateJobValidation(t *testing.T) {
	type testCase struct {
		name       string
		job        model.AggregateJob
		violations []string
	}

	testCases := []testCase{
		{
			name: "valid hero tribe subset",
			job:  model.AggregateJob{ID: "01HR8Z6S1V4C6X3K8Y7J2M9Q0B", Entity: "hero", TimePeriod: "last-patch", MmrPercentile: 25, Filter: "1-2-3-4-5"},
		},
		{
			name: "valid without id",
			job:  model.AggregateJob{Entity: "card", TimePeriod: "all-time", MmrPercentile: 100},
		},
		{
			name:       "unknown entity and period",
			job:        model.AggregateJob{Entity: "minion", TimePeriod: "past-month", MmrPercentile: 100},
			violations: []string{"bgentity", "timeperiod"},
		},
		{
			name:       "bad percentile",
			job:        model.AggregateJob{Entity: "hero", TimePeriod: "all-time", MmrPercentile: 75},
			violations: []string{"mmrpercentile"},
		},
		{
			name:       "bad filter",
			job:        model.AggregateJob{Entity: "hero", TimePeriod: "all-time", MmrPercentile: 100, Filter: "1-1-2"},
			violations: []string{"contentfilter"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			violations, err := Violations(tc.job)
			require.NoError(t, err)
			var tags []string
			for _, v := range violations {
				tags = append(tags, v.Violation)
				assert.NotEmpty(t, v.Message)
			}
			assert.Equal(t, tc.violations, tags)
		})
	}
}

func TestValidStructWrapsViolations(t *testing.T) {
	err := ValidStruct(model.AggregateJob{Entity: "minion", TimePeriod: "all-time", MmrPercentile: 100})
	var bgErr *bgerr.Error
	require.True(t, errors.As(err, &bgErr))
	assert.Equal(t, bgerr.CodeInvalidRequest, bgErr.ErrorCode)
	require.NotNil(t, bgErr.Extras)
	assert.Contains(t, *bgErr.Extras, "violations")
}
