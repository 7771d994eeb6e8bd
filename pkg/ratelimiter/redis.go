package ratelimiter

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a GCRA limiter shared by every replica using the same
// Redis.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(client),
	}
}

// Limit returns the limit allowing quota requests per duration, all of which
// may arrive at once.
func Limit(quota int, duration time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   quota,
		Burst:  quota,
		Period: duration,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string, quota int, duration time.Duration) (Result, error) {
	r, err := rl.limiter.Allow(ctx, key, Limit(quota, duration))
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Allowed:   r.Allowed > 0,
		Remaining: r.Remaining,
		Reset:     r.ResetAfter,
	}
	if r.RetryAfter > 0 {
		res.RetryAfter = r.RetryAfter
	}
	return res, nil
}
