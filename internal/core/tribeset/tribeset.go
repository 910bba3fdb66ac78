// Package tribeset enumerates the content-filter selectors built from the
// active tribe pool: the "all" sentinel followed by every tribe subset of a
// fixed size.
package tribeset

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// DefaultSize is the number of tribes active in a lobby.
const DefaultSize = 5

// AllKey is the selector key of the unfiltered sentinel.
const AllKey = "all"

var (
	ErrDuplicateSubset = errors.New("tribeset: duplicate subset generated")
	ErrInvalidSize     = errors.New("tribeset: subset size must be positive")
)

// Subset is a sorted set of tribe ids. A nil Subset is the "all" sentinel.
type Subset []int

func (s Subset) IsAll() bool {
	return s == nil
}

// Key encodes the subset as its ascending ids joined by "-", or "all".
func (s Subset) Key() string {
	if s.IsAll() {
		return AllKey
	}
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, "-")
}

// Contains reports whether tribe is part of the subset. The sentinel
// contains every tribe.
func (s Subset) Contains(tribe int) bool {
	if s.IsAll() {
		return true
	}
	_, found := slices.BinarySearch(s, tribe)
	return found
}

// ParseKey is the inverse of Subset.Key.
func ParseKey(key string) (Subset, error) {
	if key == AllKey || key == "" {
		return nil, nil
	}
	parts := strings.Split(key, "-")
	s := make(Subset, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "tribeset: invalid key %q", key)
		}
		s = append(s, t)
	}
	slices.Sort(s)
	if len(lo.Uniq(s)) != len(s) {
		return nil, errors.Errorf("tribeset: key %q repeats a tribe", key)
	}
	return s, nil
}

// Iterator yields subsets one at a time. Only the current index vector is
// held in memory, whatever the pool size.
type Iterator struct {
	pool    []int
	size    int
	indices []int

	sentDone bool
	done     bool
}

// New returns an iterator over the sentinel and every size-subset of tribes.
// The pool is deduplicated and sorted, so subsets come out in lexicographic
// order with ascending ids inside each tuple.
func New(tribes []int, size int) (*Iterator, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	pool := lo.Uniq(tribes)
	slices.Sort(pool)

	it := &Iterator{pool: pool, size: size}
	if size > len(pool) {
		it.done = true
		return it, nil
	}
	it.indices = make([]int, size)
	for i := range it.indices {
		it.indices[i] = i
	}
	return it, nil
}

// Next returns the next subset, the sentinel first. ok is false once the
// sequence is exhausted.
func (it *Iterator) Next() (Subset, bool) {
	if !it.sentDone {
		it.sentDone = true
		return nil, true
	}
	if it.done {
		return nil, false
	}

	cur := make(Subset, it.size)
	for i, idx := range it.indices {
		cur[i] = it.pool[idx]
	}
	it.advance()
	return cur, true
}

// advance moves indices to the next combination in lexicographic order.
func (it *Iterator) advance() {
	n, k := len(it.pool), it.size
	i := k - 1
	for i >= 0 && it.indices[i] == n-k+i {
		i--
	}
	if i < 0 {
		it.done = true
		return
	}
	it.indices[i]++
	for j := i + 1; j < k; j++ {
		it.indices[j] = it.indices[j-1] + 1
	}
}

// Collect drains the iterator and checks that no subset repeats.
func (it *Iterator) Collect() ([]Subset, error) {
	seen := make(map[string]struct{})
	var res []Subset
	for {
		s, ok := it.Next()
		if !ok {
			return res, nil
		}
		key := s.Key()
		if _, dup := seen[key]; dup {
			return nil, errors.Wrap(ErrDuplicateSubset, key)
		}
		seen[key] = struct{}{}
		res = append(res, s)
	}
}

// Count is the selector space size for a pool of n tribes: C(n, k) + 1.
func Count(n, k int) int {
	return binomial(n, k) + 1
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	res := 1
	for i := 1; i <= k; i++ {
		res = res * (n - k + i) / i
	}
	return res
}
