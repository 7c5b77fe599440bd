package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// clientWindow tracks the requests of one client IP inside the current window
type clientWindow struct {
	Count   int
	FirstAt time.Time
}

// RateLimiter caps how many requests a client IP may make per window.
// Entries are pruned lazily by a background sweep.
type RateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	maxRequests  int
	windowPeriod time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients:      make(map[string]*clientWindow),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
	}
	go rl.startCleanup()
	return rl
}

// startCleanup periodically removes expired windows
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, window := range rl.clients {
		if now.Sub(window.FirstAt) > rl.windowPeriod {
			delete(rl.clients, ip)
		}
	}
}

// Allow records a request from an IP and reports whether it is within the
// limit, plus how many requests remain and when the window resets.
func (rl *RateLimiter) Allow(ip string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	window, exists := rl.clients[ip]

	if !exists || now.Sub(window.FirstAt) > rl.windowPeriod {
		rl.clients[ip] = &clientWindow{Count: 1, FirstAt: now}
		return true, rl.maxRequests - 1, rl.windowPeriod
	}

	window.Count++
	remaining := rl.maxRequests - window.Count
	retryAfter := rl.windowPeriod - now.Sub(window.FirstAt)
	if remaining < 0 {
		return false, 0, retryAfter
	}
	return true, remaining, retryAfter
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, remaining, retryAfter := rl.Allow(ip)

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
