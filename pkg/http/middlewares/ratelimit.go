package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/http/response"
	"github.com/AminuIsrael/seldon-core/pkg/ratelimiter"
	"go.uber.org/zap"
)

type RateLimit struct {
	limiter ratelimiter.RateLimiter
	key     func(r *http.Request) string
	quota   int
	period  time.Duration
}

// NewRateLimit admits at most quota requests per period for each key.
func NewRateLimit(limiter ratelimiter.RateLimiter, quota int, period time.Duration, key func(r *http.Request) string) *RateLimit {
	if key == nil {
		key = ClientIP
	}
	return &RateLimit{
		limiter: limiter,
		key:     key,
		quota:   quota,
		period:  period,
	}
}

func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := m.limiter.Allow(r.Context(), m.key(r), m.quota, m.period)
		if err != nil {
			// admit requests when the limiter is unavailable
			zap.S().Warnf("rate limiter error: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.quota))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			response.Error(w, r, errs.NewMicroserviceError("rate limit exceeded", http.StatusTooManyRequests, errs.ReasonRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
