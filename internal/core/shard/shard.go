// Package shard normalizes the partial statistic files written by the hourly
// producers into the canonical accumulator shapes of package mergealg.
//
// Producers changed their schema over time. Every known schema has its own
// adapter version; detection happens per entry, so a file mixing old and new
// entries is still read in full.
package shard

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"exusiai.dev/bgstats/internal/core/percentile"
)

type Entity string

const (
	EntityHero    Entity = "hero"
	EntityQuest   Entity = "quest"
	EntityReward  Entity = "reward"
	EntityTrinket Entity = "trinket"
	EntityCard    Entity = "card"
)

var Entities = []Entity{EntityHero, EntityQuest, EntityReward, EntityTrinket, EntityCard}

func (e Entity) Valid() bool {
	for _, v := range Entities {
		if v == e {
			return true
		}
	}
	return false
}

// Folder is the storage folder holding the entity's shards. Rewards are
// written alongside quests.
func (e Entity) Folder() string {
	switch e {
	case EntityReward:
		return string(EntityQuest) + "-stats"
	default:
		return string(e) + "-stats"
	}
}

// Version names one known entry schema.
type Version string

const (
	VersionDerived      Version = "v1-derived"
	VersionRawCurves    Version = "v2-raw-curves"
	VersionAccumulators Version = "v3-accumulators"
)

const (
	SkipUnknownSchema = "unknown_schema"
	SkipDecode        = "decode_error"
)

var ErrMalformed = errors.New("shard: malformed file")

// Entry is implemented by every canonical shard entry.
type Entry interface {
	EntityKey() string
	Percentile() int
	Samples() int
}

// File is one decoded shard file. Entries holds only the entries an adapter
// version recognized; the others are counted in Skipped.
type File[T Entry] struct {
	LastUpdateDate time.Time
	MmrPercentiles percentile.Table
	DataPoints     int
	Entries        []T

	Skipped     int
	SkipReasons map[string]int
	Versions    map[Version]int
}

func (f *File[T]) Updated() time.Time {
	return f.LastUpdateDate
}

func (f *File[T]) Breakpoints() percentile.Table {
	return f.MmrPercentiles
}

// Samples sums the sample size of every recognized entry.
func (f *File[T]) Samples() int {
	total := 0
	for _, e := range f.Entries {
		total += e.Samples()
	}
	return total
}

func (f *File[T]) skip(reason string) {
	f.Skipped++
	f.SkipReasons[reason]++
}

type version[T Entry] struct {
	name   Version
	detect func(entry gjson.Result) bool
	decode func(raw []byte) (T, error)
}

// Adapter reads one entity list out of a shard file.
type Adapter[T Entry] struct {
	entity   Entity
	listPath string
	versions []version[T]
}

func (a *Adapter[T]) Entity() Entity {
	return a.entity
}

// Parse decodes data. It fails only when the file itself cannot be read;
// unrecognized or undecodable entries are skipped.
func (a *Adapter[T]) Parse(data []byte) (*File[T], error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.Wrap(ErrMalformed, "root is not an object")
	}

	f := &File[T]{
		DataPoints:  int(root.Get("dataPoints").Int()),
		SkipReasons: map[string]int{},
		Versions:    map[Version]int{},
	}

	if v := root.Get("lastUpdateDate"); v.Exists() {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, "invalid lastUpdateDate")
		}
		f.LastUpdateDate = t
	}

	if v := root.Get("mmrPercentiles"); v.Exists() {
		if err := json.Unmarshal([]byte(v.Raw), &f.MmrPercentiles); err != nil {
			return nil, errors.Wrap(ErrMalformed, "invalid mmrPercentiles")
		}
	}

	list := root.Get(a.listPath)
	if list.Exists() && !list.IsArray() {
		return nil, errors.Wrapf(ErrMalformed, "%s is not a list", a.listPath)
	}

	list.ForEach(func(_, entry gjson.Result) bool {
		a.parseEntry(f, entry)
		return true
	})

	return f, nil
}

func (a *Adapter[T]) parseEntry(f *File[T], entry gjson.Result) {
	for _, v := range a.versions {
		if !v.detect(entry) {
			continue
		}
		decoded, err := v.decode([]byte(entry.Raw))
		if err != nil {
			log.Trace().
				Err(err).
				Str("evt.name", "shard.entry_skipped").
				Str("entity", string(a.entity)).
				Str("version", string(v.name)).
				Msg("failed to decode shard entry")
			f.skip(SkipDecode)
			return
		}
		f.Entries = append(f.Entries, decoded)
		f.Versions[v.name]++
		return
	}

	log.Trace().
		Str("evt.name", "shard.entry_skipped").
		Str("entity", string(a.entity)).
		Msg("shard entry matches no known schema")
	f.skip(SkipUnknownSchema)
}

func decodeWith[W any, T Entry](convert func(W) T) func([]byte) (T, error) {
	return func(raw []byte) (T, error) {
		var w W
		if err := json.Unmarshal(raw, &w); err != nil {
			var zero T
			return zero, err
		}
		return convert(w), nil
	}
}

func hasString(entry gjson.Result, path string) bool {
	return entry.Get(path).Type == gjson.String
}

func hasAny(entry gjson.Result, paths ...string) bool {
	for _, p := range paths {
		if entry.Get(p).Exists() {
			return true
		}
	}
	return false
}

// NormalizeHeroID collapses skin variants onto their base hero.
func NormalizeHeroID(id string) string {
	if i := strings.LastIndex(id, "_SKIN_"); i >= 0 {
		return id[:i]
	}
	return id
}
