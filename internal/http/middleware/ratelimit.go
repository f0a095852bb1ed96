package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// bucketIdleTTL evicts buckets that have not been used for this long.
	bucketIdleTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between idle-bucket sweeps.
	sweepEvery = 5000
)

// keyFunc selects the identity a rate-limit bucket is keyed by.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys authenticated requests by user ("user:<id>") and the rest
// by client IP ("ip:<addr>"). Code lookups are therefore throttled per caller,
// which bounds how fast a single account can probe the 8-digit code space.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key (golang.org/x/time/rate).
// Multi-instance deployments use RedisRateLimiter instead. Safe for
// concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn keyFunc
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter refills rps tokens per second up to burst (coerced to >= 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		idle:    bucketIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// bucketFor returns the limiter for key, creating it on first use. Every
// sweepEvery lookups idle buckets are dropped first, so a stale bucket is
// replaced rather than refreshed.
func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idle {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay, which is served without spending a token.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler returns the Gin middleware. A denied request gets 429 rate_limited
// with Retry-After set to the whole seconds until a token is available.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.bucketFor(rl.keyFn(c), now).ReserveN(now, 1)
		if !res.OK() {
			rateLimited(c, 1)
			return
		}
		if d := res.DelayFrom(now); d > 0 {
			res.CancelAt(now)
			rateLimited(c, int64(math.Ceil(d.Seconds())))
			return
		}
		c.Next()
	}
}

// rateLimited aborts with 429 and a Retry-After of at least one second.
func rateLimited(c *gin.Context, retryAfter int64) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	abortWithError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
}
