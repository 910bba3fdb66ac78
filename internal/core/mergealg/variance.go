package mergealg

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

// Variance accumulates within-group variance weighted by sample size:
// SumOfSquares holds Σ(var_i·n_i).
//
// The combined value does not include the between-group term
// Σ n_i·(mean_i − grandMean)², so spread is underestimated when sub-group
// means diverge. This matches the values already published from older
// shards and is kept for parity.
type Variance struct {
	SumOfSquares float64 `json:"sumOfSquares"`
	Count        float64 `json:"count"`
}

var _ Accumulator[Variance] = Variance{}

type Pooled struct {
	Variance null.Float
	StdDev   null.Float
	// StdErr is the standard deviation of the mean: StdDev/sqrt(Count).
	StdErr null.Float
}

func VarianceFromStdDev(stdDev float64, n float64) Variance {
	if math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		return Variance{}
	}
	return Variance{SumOfSquares: stdDev * stdDev * n, Count: n}
}

func (v Variance) Kind() Kind {
	return KindVariance
}

func (v Variance) Combine(o Variance) Variance {
	return Variance{SumOfSquares: v.SumOfSquares + o.SumOfSquares, Count: v.Count + o.Count}
}

func (v Variance) Pooled() Pooled {
	variance := Ratio(v.SumOfSquares, v.Count)
	if !variance.Valid || variance.Float64 < 0 {
		return Pooled{}
	}
	stdDev := math.Sqrt(variance.Float64)
	return Pooled{
		Variance: variance,
		StdDev:   null.FloatFrom(stdDev),
		StdErr:   Ratio(stdDev, math.Sqrt(v.Count)),
	}
}

// MergePooledVariance computes Σ(var_i·n_i)/Σn_i together with its standard
// deviation and standard error.
func MergePooledVariance(list []Variance) (Variance, Pooled) {
	acc, _ := Reduce(list)
	return acc, acc.Pooled()
}
