package mergealg

import (
	"gopkg.in/guregu/null.v3"
)

// PlacementDomain lists every final placement of a lobby.
var PlacementDomain = []int{1, 2, 3, 4, 5, 6, 7, 8}

// Distribution counts occurrences per categorical bucket.
type Distribution map[int]float64

var _ Accumulator[Distribution] = Distribution{}

type Share struct {
	Bucket     int
	Count      float64
	Percentage null.Float
}

func (d Distribution) Kind() Kind {
	return KindDistribution
}

func (d Distribution) Combine(o Distribution) Distribution {
	res := make(Distribution, len(d)+len(o))
	for b, n := range d {
		res[b] = n
	}
	for b, n := range o {
		res[b] += n
	}
	return res
}

// Shares emits one entry per domain value, including empty ones. Buckets
// outside domain are ignored for both the counts and the total.
func (d Distribution) Shares(domain []int) []Share {
	total := 0.0
	for _, b := range domain {
		total += d[b]
	}
	shares := make([]Share, 0, len(domain))
	for _, b := range domain {
		shares = append(shares, Share{
			Bucket:     b,
			Count:      d[b],
			Percentage: Ratio(100*d[b], total),
		})
	}
	return shares
}

// MergeDistribution sums counts per bucket of domain and derives each
// bucket's percentage of the total.
func MergeDistribution(list []Distribution, domain []int) (Distribution, []Share) {
	acc, ok := Reduce(list)
	if !ok {
		acc = Distribution{}
	}
	restricted := make(Distribution, len(domain))
	for _, b := range domain {
		restricted[b] = acc[b]
	}
	return restricted, restricted.Shares(domain)
}
