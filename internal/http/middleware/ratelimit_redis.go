package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimit implements a fixed-window limiter using Redis INCR/EXPIRE,
// key format rl:<window_seconds>:<identifier>. With a nil client it falls
// back to an in-process token bucket.
func RateLimit(client *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := NewLocalLimiter(maxRequests, window)
	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"

	return func(c *gin.Context) {
		ident := clientKey(c)
		RLRequests.WithLabelValues(c.FullPath()).Inc()

		if client == nil {
			if !local.Allow(ident) {
				RLBlocked.WithLabelValues(c.FullPath()).Inc()
				tooManyRequests(c)
				return
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := prefix + ident
		val, err := client.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			client.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}
