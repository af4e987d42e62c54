package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/coachmybody/server/utils"
)

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

// NewRateLimiter allows perMinute requests per client with a burst of half that.
func NewRateLimiter(perMinute int) *RateLimiter {
	perMinute = max(perMinute, 1)
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
		now:      time.Now,
		limiters: map[string]*clientLimiter{},
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !rl.allow(ctx.ClientIP()) {
			utils.Problem(ctx, http.StatusTooManyRequests, 42900, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupLocked(now)

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.expires = now.Add(limiterIdleTTL)
	return cl.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	for key, cl := range rl.limiters {
		if now.After(cl.expires) {
			delete(rl.limiters, key)
		}
	}
}
