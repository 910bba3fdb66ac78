package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

func NewSet[T any](client *redis.Client, prefix string) *Set[T] {
	return &Set[T]{
		client: client,
		prefix: prefix + ":",
	}
}

// Set is a msgpack encoded redis cache of T values under a shared key prefix.
type Set[T any] struct {
	// m is a mutex for MutexGetSet for concurrent prevention
	m sync.Mutex

	client *redis.Client
	prefix string
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

// Get returns ErrNotFound when key is absent.
func (c *Set[T]) Get(ctx context.Context, key string) (T, error) {
	var dest T
	key = c.key(key)
	resp, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dest, ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to get value from redis")
		return dest, err
	}
	if err := msgpack.Unmarshal(resp, &dest); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal value from msgpack from redis")
		return dest, err
	}
	return dest, nil
}

func (c *Set[T]) Set(ctx context.Context, key string, value T, expire time.Duration) error {
	key = c.key(key)
	if l := log.Trace(); l.Enabled() {
		l.Str("key", key).Msg("setting value to redis")
	}
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return err
	}
	if err := c.client.Set(ctx, key, b, expire).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set value to redis")
		return err
	}
	return nil
}

// MutexGetSet returns the cached value of key, or computes it with valueFunc,
// caches it and returns it. Concurrent misses are serialized so valueFunc
// runs once per expiry.
func (c *Set[T]) MutexGetSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (T, error), expire time.Duration) (T, error) {
	value, err := c.Get(ctx, key)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return value, err
	}

	c.m.Lock()
	defer c.m.Unlock()
	value, err = c.Get(ctx, key)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return value, err
	}

	value, err = valueFunc(ctx)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to get value from valueFunc() in MutexGetSet")
		return value, err
	}
	if err := c.Set(ctx, key, value, expire); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to set value to redis in MutexGetSet")
	}
	return value, nil
}

func (c *Set[T]) Delete(ctx context.Context, key string) error {
	key = c.key(key)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete value from redis")
		return err
	}
	return nil
}
