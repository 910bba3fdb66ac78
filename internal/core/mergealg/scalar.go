package mergealg

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

// Scalar accumulates a weighted mean: the mean is Sum/Count.
type Scalar struct {
	Sum   float64 `json:"sum"`
	Count float64 `json:"count"`
}

var _ Accumulator[Scalar] = Scalar{}

// ScalarFromMean converts an already derived mean over n samples back into
// its accumulator. A non-finite mean contributes its weight to nothing.
func ScalarFromMean(mean float64, n float64) Scalar {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return Scalar{}
	}
	return Scalar{Sum: mean * n, Count: n}
}

func (s Scalar) Kind() Kind {
	return KindScalar
}

func (s Scalar) Combine(o Scalar) Scalar {
	return Scalar{Sum: s.Sum + o.Sum, Count: s.Count + o.Count}
}

func (s Scalar) Mean() null.Float {
	return Ratio(s.Sum, s.Count)
}

// MergeScalarMean computes Σ(mean_i·n_i)/Σn_i. The mean is undefined when
// the total weight is zero, including for an empty list.
func MergeScalarMean(list []Scalar) (Scalar, null.Float) {
	acc, _ := Reduce(list)
	return acc, acc.Mean()
}
