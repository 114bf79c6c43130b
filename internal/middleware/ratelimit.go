package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
)

// RateLimitKeyPrefix is the Redis key prefix for rate limiting
const RateLimitKeyPrefix = "ratelimit:"

// RedisWindowLimit allows max requests per window per caller across all
// instances, counted in Redis. The caller is the authenticated user when
// RequireAuth ran first, else the client IP. Redis failures fail open.
func RedisWindowLimit(name string, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if database.RedisClient == nil {
				next.ServeHTTP(w, r)
				return
			}

			caller := "ip:" + clientIP(r)
			if claims := ClaimsFrom(r.Context()); claims != nil {
				caller = "user:" + claims.Subject
			}
			key := RateLimitKeyPrefix + name + ":" + caller

			ctx := r.Context()
			pipe := database.RedisClient.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			if _, err := pipe.Exec(ctx); err != nil {
				// If Redis fails, allow the request (fail open)
				next.ServeHTTP(w, r)
				return
			}

			count := int(incr.Val())
			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if count > max {
				if ttl, err := database.RedisClient.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
				}
				tooManyRequests(w, "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
