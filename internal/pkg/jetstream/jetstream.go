package jetstream

import (
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

const (
	StreamName    = "bgstats-jobs"
	ConsumerGroup = "bgstats-aggregators"

	aggregateSubjectPrefix = "AGGREGATE."
)

// AggregateSubjects matches the job subject of every entity.
const AggregateSubjects = aggregateSubjectPrefix + "*"

func AggregateSubject(entity string) string {
	return aggregateSubjectPrefix + entity
}

// SubjectEntity extracts the entity token of an aggregate job subject.
func SubjectEntity(subject string) (string, bool) {
	entity := strings.TrimPrefix(subject, aggregateSubjectPrefix)
	if entity == subject || entity == "" {
		return "", false
	}
	return entity, true
}

func MessageID(pair nats.SequencePair) string {
	return "seq:" + strconv.FormatUint(pair.Consumer, 10)
}
