package cache

import (
	"context"
	"errors"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/serializer"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores serialized values in Redis. It is shared by every
// replica of a unit.
type RedisCache struct {
	client     redis.UniversalClient
	serializer serializer.Serializer
}

// NewRedisCache returns a cache encoding values with s, msgpack when nil.
func NewRedisCache(client redis.UniversalClient, s serializer.Serializer) *RedisCache {
	if s == nil {
		s = serializer.MsgPack
	}
	return &RedisCache{client: client, serializer: s}
}

// Put stores val. A zero expiration keeps the key forever, a nil val is
// not stored.
func (c *RedisCache) Put(ctx context.Context, key string, val interface{}, expiration time.Duration) error {
	if val == nil {
		return nil
	}
	b, err := c.serializer.Serialize(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, val interface{}) (bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, c.serializer.Deserialize(b, val)
}

func (c *RedisCache) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Exist(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}
