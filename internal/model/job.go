package model

import (
	"time"

	"exusiai.dev/bgstats/internal/core/shard"
)

// AggregateJob asks a worker to recompute one selector. It travels over NATS
// as JSON and is accepted by the admin API.
type AggregateJob struct {
	ID            string       `json:"id" validate:"omitempty,ulid"`
	Entity        shard.Entity `json:"entity" validate:"required,bgentity"`
	TimePeriod    TimePeriod   `json:"timePeriod" validate:"required,timeperiod"`
	MmrPercentile int          `json:"mmrPercentile" validate:"mmrpercentile"`
	Filter        string       `json:"filter" validate:"omitempty,contentfilter"`
	IssuedAt      time.Time    `json:"issuedAt"`
}

// Selector parses the job into a selector. Validate the job first.
func (j AggregateJob) Selector() (Selector, error) {
	filter, err := ParseFilter(j.Filter)
	if err != nil {
		return Selector{}, err
	}
	s := Selector{
		Entity:        j.Entity,
		TimePeriod:    j.TimePeriod,
		MmrPercentile: j.MmrPercentile,
		Filter:        filter,
	}
	return s, s.Validate()
}

func JobFromSelector(id string, s Selector, issuedAt time.Time) AggregateJob {
	return AggregateJob{
		ID:            id,
		Entity:        s.Entity,
		TimePeriod:    s.TimePeriod,
		MmrPercentile: s.MmrPercentile,
		Filter:        s.Filter.Key(),
		IssuedAt:      issuedAt,
	}
}
