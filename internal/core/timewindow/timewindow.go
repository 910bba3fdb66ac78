// Package timewindow resolves a time period into the daily and hourly shard
// stamps it covers.
package timewindow

import (
	"time"

	"github.com/pkg/errors"

	"exusiai.dev/bgstats/internal/model"
)

// RetentionDays bounds every window, all-time included. A window of N days
// counts today as its last day: N-1 whole days plus today's hours.
const RetentionDays = 20

// StampLayout formats shard stamps the way the producers name their files.
const StampLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrNoPatch       = errors.New("timewindow: last-patch window requires an active patch")
	ErrUnknownPeriod = errors.New("timewindow: unknown time period")
)

// Window lists the shards to load: one daily shard for each whole day and
// one hourly shard for each hour of a partial day.
type Window struct {
	Period model.TimePeriod
	Start  time.Time
	End    time.Time
	Days   []time.Time
	Hours  []time.Time
}

func (w Window) Len() int {
	return len(w.Days) + len(w.Hours)
}

func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve computes the window of period ending at now. All stamps are UTC.
func Resolve(period model.TimePeriod, now time.Time, patch *model.Patch) (Window, error) {
	now = now.UTC()
	today := midnight(now)
	oldest := today.AddDate(0, 0, 1-RetentionDays)

	w := Window{Period: period, End: now.Truncate(time.Hour)}

	var firstDay time.Time
	switch period {
	case model.TimePeriodAllTime:
		firstDay = oldest
	case model.TimePeriodPastThree:
		firstDay = today.AddDate(0, 0, -2)
	case model.TimePeriodPastSeven:
		firstDay = today.AddDate(0, 0, -6)
	case model.TimePeriodLastPatch:
		if patch == nil || patch.Date.IsZero() {
			return Window{}, ErrNoPatch
		}
		release := patch.Date.UTC()
		firstDay = midnight(release).AddDate(0, 0, 1)
		if firstDay.Before(oldest) {
			firstDay = oldest
			break
		}
		// the release day only counts from the hour following the release
		if releaseDay := midnight(release); releaseDay.Before(today) {
			for h := release.Add(time.Hour).Truncate(time.Hour); h.Before(firstDay); h = h.Add(time.Hour) {
				w.Hours = append(w.Hours, h)
			}
		} else {
			w.Start = release.Add(time.Hour).Truncate(time.Hour)
			for h := w.Start; !h.After(w.End); h = h.Add(time.Hour) {
				w.Hours = append(w.Hours, h)
			}
			return w, nil
		}
	default:
		return Window{}, errors.Wrapf(ErrUnknownPeriod, "%q", period)
	}

	for d := firstDay; d.Before(today); d = d.AddDate(0, 0, 1) {
		w.Days = append(w.Days, d)
	}
	for h := today; !h.After(w.End); h = h.Add(time.Hour) {
		w.Hours = append(w.Hours, h)
	}

	w.Start = firstDay
	if len(w.Hours) > 0 && w.Hours[0].Before(w.Start) {
		w.Start = w.Hours[0]
	}
	return w, nil
}
