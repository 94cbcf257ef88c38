package cache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

func NewSet[T any](prefix string) *Set[T] {
	return &Set[T]{
		prefix: prefix + ":",
		c:      cache.New(cache.NoExpiration, time.Minute*10),
	}
}

// Set caches values of one type under caller-provided keys. The process holds no
// out-of-process state: everything here lives in memory and vanishes on restart.
type Set[T any] struct {
	// m is a mutex for MutexGetSet for concurrent prevention
	m sync.Mutex

	prefix string

	c *cache.Cache
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

func (c *Set[T]) Get(key string, dest *T) error {
	result, ok := c.c.Get(c.key(key))
	if !ok {
		return ErrNotFound
	}
	*dest = result.(T)
	return nil
}

func (c *Set[T]) Set(key string, value T, expire time.Duration) error {
	if l := log.Trace(); l.Enabled() {
		l.Str("key", c.key(key)).Msg("setting value to cache")
	}
	c.c.Set(c.key(key), value, expire)
	return nil
}

// MutexGetSet gets value from cache and writes to dest, or if the key does not exist, it executes valueFunc
// to get cache value if the key still not exists when serially dispatched, sets value to cache and
// writes value to dest.
// The first return value reports whether the value had to be calculated: true means calculated;
// false means served from cache.
func (c *Set[T]) MutexGetSet(key string, dest *T, valueFunc func() (T, error), expire time.Duration) (bool, error) {
	err := c.Get(key, dest)
	if err == nil {
		return false, nil
	}
	// onwards, cache key does not exist

	return c.slowMutexGetSet(key, dest, valueFunc, expire)
}

func (c *Set[T]) slowMutexGetSet(key string, dest *T, valueFunc func() (T, error), expire time.Duration) (bool, error) {
	c.m.Lock()
	defer c.m.Unlock()
	err := c.Get(key, dest)
	if err == nil {
		return false, nil
	}

	value, err := valueFunc()
	if err != nil {
		log.Error().Err(err).Str("key", c.key(key)).Msg("failed to get value from valueFunc() in MutexGetSet")
		return false, err
	}

	err = c.Set(key, value, expire)
	if err != nil {
		log.Error().Err(err).Str("key", c.key(key)).Msg("failed to set value to cache in MutexGetSet")
		return false, err
	}

	*dest = value
	return true, nil
}

func (c *Set[T]) Delete(key string) error {
	c.c.Delete(c.key(key))
	return nil
}

func (c *Set[T]) Flush() error {
	c.c.Flush()
	return nil
}
