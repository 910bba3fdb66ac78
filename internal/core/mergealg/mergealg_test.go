package mergealg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkedExample(t *testing.T) {
	a := struct{ n, avg, sd float64 }{100, 4.0, 1.0}
	b := struct{ n, avg, sd float64 }{50, 5.0, 2.0}

	scalar, mean := MergeScalarMean([]Scalar{ScalarFromMean(a.avg, a.n), ScalarFromMean(b.avg, b.n)})
	require.True(t, mean.Valid)
	assert.Equal(t, 150.0, scalar.Count)
	assert.InDelta(t, 4.333, mean.Float64, 0.001)

	variance, pooled := MergePooledVariance([]Variance{VarianceFromStdDev(a.sd, a.n), VarianceFromStdDev(b.sd, b.n)})
	require.True(t, pooled.StdDev.Valid)
	assert.Equal(t, 150.0, variance.Count)
	assert.InDelta(t, 2.0, pooled.Variance.Float64, 1e-9)
	assert.InDelta(t, 1.414, pooled.StdDev.Float64, 0.001)
	assert.InDelta(t, math.Sqrt(2)/math.Sqrt(150), pooled.StdErr.Float64, 1e-9)
}

func TestZeroPopulationIsUndefined(t *testing.T) {
	_, mean := MergeScalarMean(nil)
	assert.False(t, mean.Valid)

	_, mean = MergeScalarMean([]Scalar{{Sum: 0, Count: 0}, {Sum: 0, Count: 0}})
	assert.False(t, mean.Valid)

	_, pooled := MergePooledVariance([]Variance{{}})
	assert.False(t, pooled.StdDev.Valid)
	assert.False(t, pooled.StdErr.Valid)

	_, shares := MergeDistribution(nil, PlacementDomain)
	require.Len(t, shares, len(PlacementDomain))
	for _, s := range shares {
		assert.False(t, s.Percentage.Valid, "bucket %d", s.Bucket)
	}

	_, values := MergeCurve(nil, FirstWarbandTurn, MaxTurn)
	assert.Empty(t, values)
}

func TestScalarFromNonFiniteMean(t *testing.T) {
	assert.Equal(t, Scalar{}, ScalarFromMean(math.NaN(), 10))
	assert.Equal(t, Variance{}, VarianceFromStdDev(math.Inf(1), 10))
}

func TestCurveCapAndEmptyIndices(t *testing.T) {
	shards := []Curve{
		{1: {Count: 2, Sum: 10}, 40: {Count: 5, Sum: 500}},
		{1: {Count: 1, Sum: 2}, 3: {Count: 0, Sum: 0}, 0: {Count: 3, Sum: 3}},
	}

	merged, values := MergeCurve(shards, FirstWarbandTurn, MaxTurn)
	_, ok := merged[40]
	assert.False(t, ok, "turn 40 must be dropped")
	_, ok = merged[3]
	assert.False(t, ok, "zero-count turn must be omitted")
	_, ok = merged[0]
	assert.False(t, ok, "warband curves start at turn 1")

	require.Len(t, values, 1)
	assert.Equal(t, 1, values[0].Index)
	assert.Equal(t, 3.0, values[0].Count)
	assert.InDelta(t, 4.0, values[0].Average.Float64, 1e-9)

	_, values = MergeCurve(shards, FirstCombatTurn, MaxTurn)
	require.Len(t, values, 2)
	assert.Equal(t, 0, values[0].Index)
}

func TestCombineDoesNotMutate(t *testing.T) {
	a := Curve{1: {Count: 1, Sum: 1}}
	b := Curve{1: {Count: 2, Sum: 2}}
	_ = a.Combine(b)
	assert.Equal(t, 1.0, a[1].Count)

	d := Distribution{1: 1}
	_ = d.Combine(Distribution{1: 4})
	assert.Equal(t, 1.0, d[1])
}

func TestDistributionNormalization(t *testing.T) {
	shards := []Distribution{
		{1: 13, 2: 7, 3: 9, 8: 1},
		{2: 3, 4: 17, 5: 2, 6: 11, 9: 1000},
		{7: 5},
	}
	merged, shares := MergeDistribution(shards, PlacementDomain)
	require.Len(t, shares, 8)

	total := 0.0
	for i, s := range shares {
		assert.Equal(t, PlacementDomain[i], s.Bucket)
		require.True(t, s.Percentage.Valid)
		total += Round(s.Percentage.Float64)
	}
	assert.InDelta(t, 100, total, 0.1)
	_, ok := merged[9]
	assert.False(t, ok, "out of domain bucket must not leak")
	assert.Equal(t, 10.0, merged[2])
}

func randomScalars(r *rand.Rand, n int) []Scalar {
	res := make([]Scalar, n)
	for i := range res {
		count := float64(r.Intn(500))
		res[i] = Scalar{Sum: float64(r.Intn(8)+1) * count, Count: count}
	}
	return res
}

func randomCurves(r *rand.Rand, n int) []Curve {
	res := make([]Curve, n)
	for i := range res {
		c := Curve{}
		for turn := 0; turn < 25; turn++ {
			if r.Intn(3) == 0 {
				continue
			}
			c[turn] = CurvePoint{Count: float64(r.Intn(50)), Sum: float64(r.Intn(5000))}
		}
		res[i] = c
	}
	return res
}

func randomDistributions(r *rand.Rand, n int) []Distribution {
	res := make([]Distribution, n)
	for i := range res {
		d := Distribution{}
		for _, b := range PlacementDomain {
			d[b] = float64(r.Intn(100))
		}
		res[i] = d
	}
	return res
}

func shuffled[T any](r *rand.Rand, src []T) []T {
	dst := make([]T, len(src))
	copy(dst, src)
	r.Shuffle(len(dst), func(i, j int) { dst[i], dst[j] = dst[j], dst[i] })
	return dst
}

func TestCommutativityAndAssociativity(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		scalars := randomScalars(r, 12)
		curves := randomCurves(r, 12)
		dists := randomDistributions(r, 12)
		split := r.Intn(11) + 1

		flatScalar, flatMean := MergeScalarMean(scalars)
		shuffledScalar, shuffledMean := MergeScalarMean(shuffled(r, scalars))
		left, _ := MergeScalarMean(scalars[:split])
		right, _ := MergeScalarMean(scalars[split:])
		treeScalar, treeMean := MergeScalarMean([]Scalar{right, left})
		assert.Equal(t, flatScalar, shuffledScalar)
		assert.Equal(t, flatScalar, treeScalar)
		assert.Equal(t, flatMean, shuffledMean)
		assert.Equal(t, flatMean, treeMean)

		flatCurve, flatValues := MergeCurve(curves, FirstCombatTurn, MaxTurn)
		shuffledCurve, _ := MergeCurve(shuffled(r, curves), FirstCombatTurn, MaxTurn)
		leftCurve, _ := MergeCurve(curves[:split], FirstCombatTurn, MaxTurn)
		rightCurve, _ := MergeCurve(curves[split:], FirstCombatTurn, MaxTurn)
		treeCurve, treeValues := MergeCurve([]Curve{rightCurve, leftCurve}, FirstCombatTurn, MaxTurn)
		assert.Equal(t, flatCurve, shuffledCurve)
		assert.Equal(t, flatCurve, treeCurve)
		assert.Equal(t, flatValues, treeValues)

		flatDist, flatShares := MergeDistribution(dists, PlacementDomain)
		shuffledDist, _ := MergeDistribution(shuffled(r, dists), PlacementDomain)
		leftDist, _ := MergeDistribution(dists[:split], PlacementDomain)
		rightDist, _ := MergeDistribution(dists[split:], PlacementDomain)
		treeDist, treeShares := MergeDistribution([]Distribution{rightDist, leftDist}, PlacementDomain)
		assert.Equal(t, flatDist, shuffledDist)
		assert.Equal(t, flatDist, treeDist)
		assert.Equal(t, flatShares, treeShares)
	}
}

func TestImpactAndRatio(t *testing.T) {
	assert.False(t, Ratio(1, 0).Valid)
	assert.False(t, Ratio(math.NaN(), 1).Valid)
	assert.InDelta(t, 0.25, Ratio(1, 4).Float64, 1e-12)

	assert.False(t, Impact(Ratio(1, 0), Ratio(1, 1)).Valid)
	assert.InDelta(t, -0.75, Impact(Ratio(1, 4), Ratio(1, 1)).Float64, 1e-12)

	assert.Equal(t, 4.33, Round(4.3333))
	assert.Equal(t, "distribution", KindDistribution.String())
}
