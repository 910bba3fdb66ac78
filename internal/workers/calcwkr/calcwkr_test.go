package calcwkr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/service"
)

type recordingSweeper struct {
	mu       sync.Mutex
	entities []shard.Entity
	failed   map[shard.Entity]int
	errs     map[shard.Entity]error
}

func (s *recordingSweeper) RunAll(_ context.Context, entity shard.Entity) (service.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = append(s.entities, entity)
	return service.Summary{Entity: entity, Total: 20, Succeeded: 20 - s.failed[entity], Failed: s.failed[entity]}, s.errs[entity]
}

type stubLock struct {
	held     bool
	unlocked *int
}

func (l stubLock) LockContext(context.Context) error {
	if l.held {
		return errors.New("lock already taken")
	}
	return nil
}

func (l stubLock) UnlockContext(context.Context) (bool, error) {
	*l.unlocked++
	return true, nil
}

func TestSweep(t *testing.T) {
	sweeper := &recordingSweeper{
		failed: map[shard.Entity]int{shard.EntityQuest: 1},
		errs:   map[shard.Entity]error{shard.EntityCard: errors.New("bucket unavailable")},
	}
	unlocked := 0
	var pinged []string

	w := &Worker{
		timeout:  time.Minute,
		entities: []shard.Entity{shard.EntityHero, shard.EntityQuest, shard.EntityTrinket, shard.EntityCard},
		heartbeat: map[string]string{
			"hero":  "https://hc.example/hero",
			"quest": "https://hc.example/quest",
			"card":  "https://hc.example/card",
		},
		sweeper: sweeper,
		lock: func(entity shard.Entity) locker {
			return stubLock{held: entity == shard.EntityTrinket, unlocked: &unlocked}
		},
		ping: func(url string) error {
			pinged = append(pinged, url)
			return nil
		},
	}

	w.sweep(context.Background())

	assert.Equal(t, []shard.Entity{shard.EntityHero, shard.EntityQuest, shard.EntityCard}, sweeper.entities,
		"an entity locked by another replica is skipped")
	assert.Equal(t, 3, unlocked)
	assert.Equal(t, []string{"https://hc.example/hero"}, pinged,
		"only clean sweeps send a heartbeat")
}
