package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fixed window: first hit in a window sets the expiry
var windowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { current, ttl }
`)

type Config struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// Limiter is a per-key fixed-window counter stored in Redis.
// Redis errors let the request through.
type Limiter struct {
	rdb redis.Scripter
	cfg Config
}

func New(rdb redis.Scripter, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	return &Limiter{rdb: rdb, cfg: cfg}
}

// Allow reports whether key may proceed and how long until its window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	vals, err := windowScript.Run(ctx, l.rdb,
		[]string{l.cfg.Prefix + ":" + key},
		l.cfg.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return true, 0, fmt.Errorf("unexpected rate limit result %v", vals)
	}

	retry := time.Duration(vals[1]) * time.Millisecond
	if retry < 0 {
		retry = 0
	}
	return vals[0] <= int64(l.cfg.Limit), retry, nil
}

// Middleware limits requests per key returned by keyFn. A nil limiter is a pass-through.
func Middleware(l *Limiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := keyFn(c)
		ok, retry, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"retryAfter": secs,
			})
			return
		}
		c.Next()
	}
}
