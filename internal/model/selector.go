package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"exusiai.dev/bgstats/internal/core/percentile"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/tribeset"
)

type TimePeriod string

const (
	TimePeriodAllTime   TimePeriod = "all-time"
	TimePeriodPastThree TimePeriod = "past-three"
	TimePeriodPastSeven TimePeriod = "past-seven"
	TimePeriodLastPatch TimePeriod = "last-patch"
)

var TimePeriods = []TimePeriod{TimePeriodAllTime, TimePeriodPastThree, TimePeriodPastSeven, TimePeriodLastPatch}

func (p TimePeriod) Valid() bool {
	for _, v := range TimePeriods {
		if v == p {
			return true
		}
	}
	return false
}

const anomalyPrefix = "anomaly-"

// Filter restricts a selector to lobbies with a given tribe subset or
// anomaly. The zero value is the unfiltered "all" filter.
type Filter struct {
	Tribes  tribeset.Subset
	Anomaly string
}

func TribeFilter(s tribeset.Subset) Filter {
	return Filter{Tribes: s}
}

func AnomalyFilter(anomaly string) Filter {
	return Filter{Anomaly: anomaly}
}

func (f Filter) IsAll() bool {
	return f.Tribes.IsAll() && f.Anomaly == ""
}

// Key encodes the filter: "all", the tribe subset key, or "anomaly-<id>".
func (f Filter) Key() string {
	switch {
	case f.Anomaly != "":
		return anomalyPrefix + f.Anomaly
	default:
		return f.Tribes.Key()
	}
}

func ParseFilter(key string) (Filter, error) {
	if strings.HasPrefix(key, anomalyPrefix) {
		anomaly := strings.TrimPrefix(key, anomalyPrefix)
		if anomaly == "" {
			return Filter{}, errors.Errorf("empty anomaly filter %q", key)
		}
		return AnomalyFilter(anomaly), nil
	}
	s, err := tribeset.ParseKey(key)
	if err != nil {
		return Filter{}, err
	}
	return TribeFilter(s), nil
}

// Selector identifies one merged artifact.
type Selector struct {
	Entity        shard.Entity
	TimePeriod    TimePeriod
	MmrPercentile int
	Filter        Filter
}

func (s Selector) String() string {
	return fmt.Sprintf("%s/%s/mmr-%d/%s", s.Entity, s.TimePeriod, s.MmrPercentile, s.Filter.Key())
}

func (s Selector) Validate() error {
	if !s.Entity.Valid() {
		return errors.Errorf("unknown entity %q", s.Entity)
	}
	if !s.TimePeriod.Valid() {
		return errors.Errorf("unknown time period %q", s.TimePeriod)
	}
	if !percentile.IsSupported(s.MmrPercentile) {
		return errors.Errorf("unsupported mmr percentile %d", s.MmrPercentile)
	}
	if s.Entity != shard.EntityHero && !s.Filter.IsAll() {
		return errors.Errorf("entity %q only supports the %q filter", s.Entity, tribeset.AllKey)
	}
	return nil
}
