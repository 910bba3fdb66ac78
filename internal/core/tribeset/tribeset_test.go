package tribeset

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	type testCase struct {
		tribes []int
		size   int
		want   int
	}

	testCases := []testCase{
		{tribes: []int{14, 17, 18, 20, 23, 24, 43}, size: 5, want: 22},
		{tribes: []int{11, 14, 17, 18, 20, 23, 24, 43, 92}, size: 5, want: 127},
		{tribes: []int{1, 2, 3, 4, 5}, size: 5, want: 2},
		{tribes: []int{1, 2, 3}, size: 5, want: 1},
		{tribes: []int{3, 1, 2, 2, 1}, size: 2, want: 4},
	}

	for _, tc := range testCases {
		it, err := New(tc.tribes, tc.size)
		require.NoError(t, err)
		subsets, err := it.Collect()
		require.NoError(t, err)
		assert.Len(t, subsets, tc.want, "unexpected selector count: %s", spew.Sdump(tc))
		assert.Equal(t, tc.want, Count(len(uniq(tc.tribes)), tc.size))

		require.True(t, subsets[0].IsAll())
		for _, s := range subsets[1:] {
			assert.Len(t, s, tc.size)
			for i := 1; i < len(s); i++ {
				assert.Less(t, s[i-1], s[i], "subset must be strictly ascending: %v", s)
			}
		}
	}
}

func TestOrderIsLexicographic(t *testing.T) {
	it, err := New([]int{4, 1, 3, 2}, 3)
	require.NoError(t, err)
	subsets, err := it.Collect()
	require.NoError(t, err)

	keys := make([]string, len(subsets))
	for i, s := range subsets {
		keys[i] = s.Key()
	}
	assert.Equal(t, []string{"all", "1-2-3", "1-2-4", "1-3-4", "2-3-4"}, keys)
}

func TestNextAfterExhaustion(t *testing.T) {
	it, err := New([]int{1, 2}, 2)
	require.NoError(t, err)

	_, ok := it.Next()
	require.True(t, ok)
	s, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, Subset{1, 2}, s)
	_, ok = it.Next()
	assert.False(t, ok)
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestInvalidSize(t *testing.T) {
	_, err := New([]int{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestKeyRoundTrip(t *testing.T) {
	s, err := ParseKey("43-14-17")
	require.NoError(t, err)
	assert.Equal(t, Subset{14, 17, 43}, s)
	assert.Equal(t, "14-17-43", s.Key())
	assert.True(t, s.Contains(17))
	assert.False(t, s.Contains(18))

	all, err := ParseKey(AllKey)
	require.NoError(t, err)
	assert.True(t, all.IsAll())
	assert.True(t, all.Contains(18))

	_, err = ParseKey("14-14")
	assert.Error(t, err)
	_, err = ParseKey("14-murloc")
	assert.Error(t, err)
}

func uniq(in []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range in {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
