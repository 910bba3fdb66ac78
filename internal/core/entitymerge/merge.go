// Package entitymerge folds the shard entries of one selector into the
// per-entity global statistics.
package entitymerge

import (
	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
	"exusiai.dev/bgstats/internal/core/shard"
)

// PlaceholderHero is the hero id recorded when a lobby ended before a hero
// was picked.
const PlaceholderHero = "TB_BaconShop_HERO_PH"

type Options struct {
	// Percentile keeps only entries recorded for this band. Entries that do
	// not carry a band are kept; 0 disables the check.
	Percentile int
	// MinSupportRatio drops heroes whose sample size is not above
	// max(sample size)/MinSupportRatio. 0 disables the check.
	MinSupportRatio float64
	// MissingRatio drops hero tribe breakdowns whose complement population
	// is not above dataPoints/MissingRatio. 0 disables the check.
	MissingRatio float64
	// MinDataPoints drops any entity with fewer samples.
	MinDataPoints int
	// Exclude drops entities by key before merging.
	Exclude func(key string) bool
}

func DefaultOptions() Options {
	return Options{
		MinSupportRatio: 50,
		MissingRatio:    20,
		Exclude: func(key string) bool {
			return key == PlaceholderHero
		},
	}
}

type Result[R any] struct {
	Stats []R
	// DataPoints sums the samples of every qualifying entry, including the
	// entities later dropped by the low-sample filter.
	DataPoints int
	Entries    int
	Dropped    int
}

func qualifying[T shard.Entry](entries []T, opts Options) []T {
	return lo.Filter(entries, func(e T, _ int) bool {
		if opts.Percentile != 0 && e.Percentile() != 0 && e.Percentile() != opts.Percentile {
			return false
		}
		if opts.Exclude != nil && opts.Exclude(e.EntityKey()) {
			return false
		}
		return true
	})
}

// groupSorted groups list by key and returns the keys in ascending order.
func groupSorted[T any, K constraints.Ordered](list []T, key func(T) K) ([]K, map[K][]T) {
	groups := lo.GroupBy(list, key)
	keys := maps.Keys(groups)
	slices.Sort(keys)
	return keys, groups
}

// mergeEntities merges every entity group in key order and applies the
// sample size filters.
func mergeEntities[T shard.Entry, R any](entries []T, opts Options, supportRatio float64, merge func(key string, group []T) R, samples func(R) int) Result[R] {
	entries = qualifying(entries, opts)
	keys, groups := groupSorted(entries, func(e T) string { return e.EntityKey() })

	stats := make([]R, 0, len(keys))
	for _, k := range keys {
		stats = append(stats, merge(k, groups[k]))
	}

	kept := lowSample(stats, samples, supportRatio, opts.MinDataPoints)
	return Result[R]{
		Stats:      kept,
		DataPoints: lo.SumBy(entries, func(e T) int { return e.Samples() }),
		Entries:    len(entries),
		Dropped:    len(stats) - len(kept),
	}
}

func lowSample[R any](stats []R, samples func(R) int, ratio float64, minimum int) []R {
	maxSamples := 0
	for _, s := range stats {
		if n := samples(s); n > maxSamples {
			maxSamples = n
		}
	}
	return lo.Filter(stats, func(s R, _ int) bool {
		n := samples(s)
		if n < minimum {
			return false
		}
		if ratio > 0 && float64(n) <= float64(maxSamples)/ratio {
			return false
		}
		return true
	})
}

func mean[T any](list []T, f func(T) mergealg.Scalar) null.Float {
	_, m := mergealg.MergeScalarMean(lo.Map(list, func(v T, _ int) mergealg.Scalar { return f(v) }))
	return m
}

func round(f null.Float) null.Float {
	return mergealg.RoundNull(f)
}
