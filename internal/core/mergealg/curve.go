package mergealg

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/guregu/null.v3"
)

const (
	// MaxTurn caps every turn-indexed curve.
	MaxTurn = 20

	FirstWarbandTurn = 1
	// FirstCombatTurn includes the pre-combat index.
	FirstCombatTurn = 0
)

type CurvePoint struct {
	Count float64 `json:"count"`
	Sum   float64 `json:"sum"`
}

// Curve is a sparse turn-indexed accumulator.
type Curve map[int]CurvePoint

var _ Accumulator[Curve] = Curve{}

type CurveValue struct {
	Index   int
	Count   float64
	Average null.Float
}

func (c Curve) Kind() Kind {
	return KindCurve
}

func (c Curve) Combine(o Curve) Curve {
	res := make(Curve, len(c)+len(o))
	for i, p := range c {
		res[i] = p
	}
	for i, p := range o {
		cur := res[i]
		res[i] = CurvePoint{Count: cur.Count + p.Count, Sum: cur.Sum + p.Sum}
	}
	return res
}

// Clamp returns a copy holding only indices within [minIndex, maxIndex] that
// carry a positive count.
func (c Curve) Clamp(minIndex, maxIndex int) Curve {
	res := make(Curve, len(c))
	for i, p := range c {
		if i < minIndex || i > maxIndex || p.Count <= 0 {
			continue
		}
		res[i] = p
	}
	return res
}

// Values lists the curve in ascending index order.
func (c Curve) Values() []CurveValue {
	indices := maps.Keys(c)
	slices.Sort(indices)
	values := make([]CurveValue, 0, len(indices))
	for _, i := range indices {
		p := c[i]
		values = append(values, CurveValue{
			Index:   i,
			Count:   p.Count,
			Average: Ratio(p.Sum, p.Count),
		})
	}
	return values
}

// MergeCurve sums count and sum per index across list. Indices outside
// [minIndex, maxIndex] and indices whose total count is zero are omitted.
func MergeCurve(list []Curve, minIndex, maxIndex int) (Curve, []CurveValue) {
	acc, ok := Reduce(list)
	if !ok {
		return Curve{}, []CurveValue{}
	}
	acc = acc.Clamp(minIndex, maxIndex)
	return acc, acc.Values()
}
