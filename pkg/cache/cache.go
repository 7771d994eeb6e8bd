package cache

import (
	"context"
	"errors"
	"time"
)

type Cache interface {
	Put(ctx context.Context, key string, val interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, val interface{}) (exist bool, err error)
	Remove(ctx context.Context, key string) error
	Exist(ctx context.Context, key string) (bool, error)
}

// Level is one level of a TieredCache with its own expiration.
type Level struct {
	Cache      Cache
	Expiration time.Duration
}

// TieredCache looks keys up level by level, filling the faster levels on a
// hit in a slower one. Puts are written to every level.
type TieredCache struct {
	levels []Level
}

func NewTieredCache(levels ...Level) *TieredCache {
	return &TieredCache{levels: levels}
}

func (c *TieredCache) Put(ctx context.Context, key string, val interface{}, _ time.Duration) error {
	var errs []error
	for _, level := range c.levels {
		errs = append(errs, level.Cache.Put(ctx, key, val, level.Expiration))
	}
	return errors.Join(errs...)
}

func (c *TieredCache) Get(ctx context.Context, key string, val interface{}) (bool, error) {
	var errs []error
	for i, level := range c.levels {
		exist, err := level.Cache.Get(ctx, key, val)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exist {
			for _, upper := range c.levels[:i] {
				errs = append(errs, upper.Cache.Put(ctx, key, val, upper.Expiration))
			}
			return true, errors.Join(errs...)
		}
	}
	return false, errors.Join(errs...)
}

func (c *TieredCache) Remove(ctx context.Context, key string) error {
	var errs []error
	for _, level := range c.levels {
		errs = append(errs, level.Cache.Remove(ctx, key))
	}
	return errors.Join(errs...)
}

func (c *TieredCache) Exist(ctx context.Context, key string) (bool, error) {
	var errs []error
	for _, level := range c.levels {
		exist, err := level.Cache.Exist(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exist {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}
