// Package percentile derives the skill-rating breakpoints that split the
// player population into top-N% bands.
package percentile

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/guregu/null.v3"
)

// DefaultGroupWidth is the rating span of one histogram bucket.
const DefaultGroupWidth = 500

// Percentiles lists the supported bands, widest first. 100 is the whole
// population.
var Percentiles = []int{100, 50, 25, 10, 1}

var ErrEmptyPopulation = errors.New("percentile: empty population")

type Breakpoint struct {
	Percentile int `json:"percentile"`
	Mmr        int `json:"mmr"`
}

// Table holds one breakpoint per supported percentile, in the order of
// Percentiles.
type Table []Breakpoint

// Mmr returns the minimum rating of band p.
func (t Table) Mmr(p int) (int, bool) {
	for _, b := range t {
		if b.Percentile == p {
			return b.Mmr, true
		}
	}
	return 0, false
}

// IsSupported reports whether p is one of Percentiles.
func IsSupported(p int) bool {
	return slices.Contains(Percentiles, p)
}

// FromRatings builds the table from a flat list of ratings: band p starts at
// the rating found at index floor(len*(100-p)/100) once sorted ascending.
func FromRatings(ratings []int) (Table, error) {
	if len(ratings) == 0 {
		return nil, ErrEmptyPopulation
	}
	sorted := make([]int, len(ratings))
	copy(sorted, ratings)
	slices.Sort(sorted)

	table := make(Table, 0, len(Percentiles))
	for _, p := range Percentiles {
		if p == 100 {
			table = append(table, Breakpoint{Percentile: p, Mmr: 0})
			continue
		}
		table = append(table, Breakpoint{Percentile: p, Mmr: sorted[targetIndex(len(sorted), p)]})
	}
	return table, nil
}

func targetIndex(total int, p int) int {
	idx := int(math.Floor(float64(total) * float64(100-p) / 100))
	if idx >= total {
		idx = total - 1
	}
	return idx
}

// Bucket is one fixed-width slice of the rating histogram, covering
// [Threshold, Threshold+Width).
type Bucket struct {
	Threshold int `json:"mmrThreshold"`
	Width     int `json:"mmrRangeUp"`
	Count     int `json:"quantity"`
}

// RankGroups returns empty buckets of the given width starting at 0 and
// covering highest.
func RankGroups(highest, width int) []Bucket {
	if width <= 0 {
		width = DefaultGroupWidth
	}
	var groups []Bucket
	for mmr := 0; mmr <= highest; mmr += width {
		groups = append(groups, Bucket{Threshold: mmr, Width: width})
	}
	return groups
}

// Bucketize counts ratings into fixed-width buckets.
func Bucketize(ratings []int, width int) []Bucket {
	highest := 0
	for _, r := range ratings {
		if r > highest {
			highest = r
		}
	}
	groups := RankGroups(highest, width)
	for _, r := range ratings {
		if r < 0 {
			continue
		}
		groups[r/groups[0].Width].Count++
	}
	return groups
}

// FromHistogram approximates the table from pre-bucketed counts. The
// breakpoint of band p is the threshold of the bucket holding the rating
// FromRatings would pick, so it is never above the exact value.
func FromHistogram(buckets []Bucket) (Table, error) {
	sorted := make([]Bucket, len(buckets))
	copy(sorted, buckets)
	slices.SortFunc(sorted, func(a, b Bucket) bool {
		return a.Threshold < b.Threshold
	})

	total := 0
	for _, b := range sorted {
		total += b.Count
	}
	if total == 0 {
		return nil, ErrEmptyPopulation
	}

	table := make(Table, 0, len(Percentiles))
	for _, p := range Percentiles {
		if p == 100 {
			table = append(table, Breakpoint{Percentile: p, Mmr: 0})
			continue
		}
		idx := targetIndex(total, p)
		cumulative := 0
		for _, b := range sorted {
			cumulative += b.Count
			if cumulative > idx {
				table = append(table, Breakpoint{Percentile: p, Mmr: b.Threshold})
				break
			}
		}
	}
	return table, nil
}

// Source is anything stamped with an update date that carries a table.
type Source interface {
	Updated() time.Time
	Breakpoints() Table
}

// Latest picks the table of the most recently updated source, which best
// reflects the current state of the ladder.
func Latest[S Source](sources []S) (Table, error) {
	var (
		latest  Table
		at      time.Time
		matched bool
	)
	for _, s := range sources {
		if len(s.Breakpoints()) == 0 {
			continue
		}
		if !matched || s.Updated().After(at) {
			latest, at, matched = s.Breakpoints(), s.Updated(), true
		}
	}
	if !matched {
		return nil, ErrEmptyPopulation
	}
	return latest, nil
}

// Qualifies reports whether a row rated rating belongs to band p. Band 100
// always qualifies, including rows whose rating could not be collected.
func Qualifies(rating null.Int, table Table, p int) bool {
	if p == 100 {
		return true
	}
	if !rating.Valid {
		return false
	}
	mmr, ok := table.Mmr(p)
	if !ok {
		return false
	}
	return rating.Int64 >= int64(mmr)
}
