package cache

import (
	"context"
	"sync"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/serializer"
	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process LRU cache. Values are stored serialized so
// callers never share them.
type MemoryCache struct {
	mux sync.Mutex
	lru *lru.Cache[string, entry]
	s   serializer.Serializer
	now func() time.Time
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{
		lru: l,
		s:   serializer.MsgPack,
		now: time.Now,
	}, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if value == nil {
		return nil
	}
	b, err := c.s.Serialize(value)
	if err != nil {
		return err
	}
	e := entry{value: b}
	if expiration > 0 {
		e.expiresAt = c.now().Add(expiration)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *MemoryCache) lookup(key string) (entry, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		return e, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return e, false
	}
	return e, true
}

func (c *MemoryCache) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	e, ok := c.lookup(key)
	if !ok {
		return false, nil
	}
	return true, c.s.Deserialize(e.value, value)
}

func (c *MemoryCache) Remove(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) Exist(ctx context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}
