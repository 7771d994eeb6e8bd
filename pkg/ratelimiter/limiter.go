// Package ratelimiter admits requests against a quota per period.
package ratelimiter

import (
	"context"
	"time"
)

type Result struct {
	Allowed   bool
	Remaining int
	// Reset is the time until the quota is fully restored
	Reset time.Duration
	// RetryAfter is zero when the request was allowed
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, quota int, duration time.Duration) (Result, error)
}
