package jetstream

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "AGGREGATE.hero", AggregateSubject("hero"))

	entity, ok := SubjectEntity("AGGREGATE.trinket")
	assert.True(t, ok)
	assert.Equal(t, "trinket", entity)

	_, ok = SubjectEntity("REPORT.SINGLE")
	assert.False(t, ok)
	_, ok = SubjectEntity("AGGREGATE.")
	assert.False(t, ok)
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "seq:42", MessageID(nats.SequencePair{Consumer: 42, Stream: 7}))
}
