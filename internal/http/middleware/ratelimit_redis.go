package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript admits a request when fewer than ARGV[1] entries were
// recorded in the last ARGV[2] milliseconds. It returns {allowed, remaining,
// reset_at_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('PEXPIRE', key, window + 1000)
    return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = 0
if #oldest >= 2 then
    reset_at = tonumber(oldest[2]) + window
end
return {0, 0, reset_at}
`)

// RedisRateLimiter enforces a per-minute sliding window shared by every
// instance talking to the same Redis. Redis failures fail open.
type RedisRateLimiter struct {
	client    redis.Scripter
	perMinute int
	keyFn     keyFunc
	prefix    string
	now       func() time.Time
}

// NewRedisRateLimiter builds a limiter admitting perMinute requests per key.
func NewRedisRateLimiter(client redis.Scripter, perMinute int, keyFn keyFunc) *RedisRateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RedisRateLimiter{
		client:    client,
		perMinute: perMinute,
		keyFn:     keyFn,
		prefix:    "chatcode:ratelimit:",
		now:       time.Now,
	}
}

// Handler returns the Gin middleware. Idempotent replays are not counted.
func (rl *RedisRateLimiter) Handler() gin.HandlerFunc {
	const window = int64(60 * 1000)

	return func(c *gin.Context) {
		if rl.client == nil || IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now().UnixMilli()
		res, err := slidingWindowScript.Run(c.Request.Context(), rl.client,
			[]string{rl.prefix + rl.keyFn(c)}, rl.perMinute, window, now,
		).Int64Slice()
		if err != nil || len(res) < 3 {
			LoggerFrom(c).Warn().Err(err).Msg("rate limiter unavailable; allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

		if res[0] != 1 {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(res[2]/1000, 10))
			rateLimited(c, (res[2]-now)/1000)
			return
		}
		c.Next()
	}
}
