package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/clock"
)

// RateLimiter is a fixed-window limiter keyed per client.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clock   clock.Clock
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clock:   clk,
		clients: make(map[string]*clientBucket),
	}
}

// RateLimiterMiddleware enforces the limit for the key derived by keyFn.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		now := rl.clock.Now()

		rl.mu.Lock()

		b, ok := rl.clients[key]
		if !ok || !now.Before(b.windowEnd) {
			rl.sweepLocked(now)
			rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
			rl.mu.Unlock()
			c.Next()
			return
		}

		if b.count >= rl.limit {
			retryAfter := int(math.Ceil(b.windowEnd.Sub(now).Seconds()))
			rl.mu.Unlock()

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortJSON(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		b.count++
		rl.mu.Unlock()
		c.Next()
	}
}

// sweepLocked drops finished windows so idle clients do not pile up.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if len(rl.clients) < 10000 {
		return
	}
	for k, b := range rl.clients {
		if !now.Before(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}

// KeyByUserOrIP rate limits authenticated callers per user and everyone else
// per IP.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok {
		return "user:" + id
	}
	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}
