package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/knowledgebase-backend/internal/http/response"
)

const rateLimitIdleEviction = 30 * time.Minute

// RateLimiter throttles requests per client IP using a token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type rateLimitClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows at most maxRequests per window from a single IP.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*rateLimitClient),
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[ip]
	if !ok {
		client = &rateLimitClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = client
	}
	client.seen = now

	if len(rl.clients) > 1024 {
		rl.evictIdle(now)
	}
	return client.limiter.Allow()
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.seen) > rateLimitIdleEviction {
			delete(rl.clients, ip)
		}
	}
}

var errTooManyRequests = &middlewareError{"too many requests, slow down"}
