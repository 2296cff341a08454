package httpapi

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request id through logs and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an id, honoring one supplied by the
// caller so upstream proxies can correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID retrieves the request id from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

// rateLimiterCacheSize bounds how many per-IP token buckets are kept.
// An evicted client simply starts over with a full bucket.
const rateLimiterCacheSize = 4096

// rateLimiter hands out one token bucket per client IP, keeping only
// the most recently seen clients so the set cannot grow without bound.
type rateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	limiters, err := lru.New[string, *rate.Limiter](rateLimiterCacheSize)
	if err != nil {
		// Unreachable with a positive constant size.
		limiters, _ = lru.New[string, *rate.Limiter](1)
	}
	return &rateLimiter{
		limiters: limiters,
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (r *rateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(r.rps, r.burst)
	r.limiters.Add(key, lim)
	return lim
}

// RateLimit rejects clients that exceed their per-IP token bucket.
// Health checks are exempt.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	rl := newRateLimiter(rps, burst)
	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error_code": "rate_limit_exceeded",
				"message":    "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
