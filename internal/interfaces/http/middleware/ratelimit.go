package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. A bucket holds limit tokens
// and refills at limit per window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	every   rate.Limit
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(limit, window, time.Now)
	go rl.cleanupLoop(window * 2)
	return rl
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Limit returns the bucket size
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Allow takes one token for key. When the bucket is empty it reports how long
// until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()
	lim := rl.limiterFor(key, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Remaining returns the whole tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	now := rl.now()
	rl.mu.Lock()
	c, ok := rl.clients[key]
	rl.mu.Unlock()
	if !ok {
		return rl.limit
	}
	tokens := c.limiter.TokensAt(now)
	if tokens < 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops buckets idle for longer than two windows; they are full
// again by then
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// RateLimit returns a rate limiting middleware keyed by client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		allowed, retryAfter := limiter.Allow(key)
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			abortWithError(c, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
