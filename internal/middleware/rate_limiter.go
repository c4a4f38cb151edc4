package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window limiter keyed by client IP and stored in Redis, so the
// limit holds across every API instance. Requests pass through when rdb is nil, limit is
// not positive, or Redis errors.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		now := time.Now()
		bucket := now.Unix() / int64(window/time.Second)
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), bucket)

		ctx := c.Request.Context()
		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("rate limiter: redis unavailable, allowing request")
			c.Next()
			return
		}

		count := int(incr.Val())
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > limit {
			windowEnd := time.Unix((bucket+1)*int64(window/time.Second), 0)
			c.Header("Retry-After", strconv.Itoa(int(time.Until(windowEnd).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
