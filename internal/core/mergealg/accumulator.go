// Package mergealg implements the weighted composition rules used to merge
// partial statistic shards. Every accumulator is a plain sum, so merging is
// commutative and associative: shards can be combined in any order or tree
// shape and yield the same result.
package mergealg

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

type Kind int

const (
	KindScalar Kind = iota
	KindVariance
	KindCurve
	KindDistribution
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVariance:
		return "variance"
	case KindCurve:
		return "curve"
	case KindDistribution:
		return "distribution"
	default:
		return "unknown"
	}
}

// Accumulator is implemented by every metric shape. Combine must not
// mutate either operand.
type Accumulator[T any] interface {
	Kind() Kind
	Combine(other T) T
}

// Reduce folds list into a single accumulator. The second return value is
// false when list is empty.
func Reduce[T Accumulator[T]](list []T) (T, bool) {
	var acc T
	if len(list) == 0 {
		return acc, false
	}
	acc = list[0]
	for _, next := range list[1:] {
		acc = acc.Combine(next)
	}
	return acc, true
}

// Ratio divides num by den, yielding an undefined value instead of NaN or
// Inf when den is zero or either operand is not finite.
func Ratio(num, den float64) null.Float {
	if den == 0 || math.IsNaN(num) || math.IsNaN(den) || math.IsInf(num, 0) || math.IsInf(den, 0) {
		return null.Float{}
	}
	return null.FloatFrom(num / den)
}

// Impact is value minus reference; undefined if either side is undefined.
func Impact(value, reference null.Float) null.Float {
	if !value.Valid || !reference.Valid {
		return null.Float{}
	}
	return null.FloatFrom(value.Float64 - reference.Float64)
}

func Round(f float64) float64 {
	return RoundN(f, 2)
}

func RoundN(f float64, n int) float64 {
	pow := math.Pow10(n)
	return math.Round(f*pow) / pow
}

// RoundNull rounds a defined value and passes undefined values through.
func RoundNull(f null.Float) null.Float {
	if !f.Valid {
		return f
	}
	return null.FloatFrom(Round(f.Float64))
}
