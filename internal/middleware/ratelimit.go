package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"catalog-import-service/internal/models"
)

// DefaultIdleTTL is how long an unused bucket is kept
const DefaultIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per tenant (or client IP before tenant resolution).
// Buckets idle for longer than the TTL are swept on access.
type RateLimiter struct {
	keys      map[string]*limiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		keys:      make(map[string]*limiterEntry),
		rate:      r,
		burst:     b,
		idleTTL:   DefaultIdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// PerMinute builds a limiter allowing n requests a minute with a burst of n
func PerMinute(n int) *RateLimiter {
	if n <= 0 {
		return nil
	}
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweep(now)
	}

	if entry, exists := rl.keys[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.keys[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// Len reports how many buckets are held
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.keys)
}

// sweep removes stale buckets; callers hold mu
func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.keys {
		if now.Sub(entry.lastSeen) > rl.idleTTL {
			delete(rl.keys, key)
		}
	}
	rl.lastSweep = now
}

// RateLimitMiddleware rejects requests over the limit with 429; a nil limiter disables it
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		key := GetTenantID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.GetLimiter(key).Allow() {
			c.JSON(http.StatusTooManyRequests, models.NewErrorResponse(
				"RATE_LIMITED",
				"Too many import requests, slow down",
			))
			c.Abort()
			return
		}
		c.Next()
	}
}
