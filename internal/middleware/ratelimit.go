package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryRateLimiter hands every client key its own token bucket that
// refills limit tokens per window. Buckets idle for a full window are
// forgotten by Run.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	every    rate.Limit
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &InMemoryRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		every:    rate.Limit(float64(limit) / window.Seconds()),
	}
}

// Allow reports whether key may proceed now.
func (r *InMemoryRateLimiter) Allow(key string) bool {
	ok, _ := r.take(key, time.Now())
	return ok
}

// take spends one token for key. When none is left it returns the wait
// until the next one.
func (r *InMemoryRateLimiter) take(key string, now time.Time) (bool, time.Duration) {
	r.mu.Lock()
	v := r.visitors[key]
	if v == nil {
		v = &visitor{limiter: rate.NewLimiter(r.every, r.limit)}
		r.visitors[key] = v
	}
	v.lastSeen = now
	r.mu.Unlock()

	res := v.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Run sweeps idle buckets once per window until ctx is done.
func (r *InMemoryRateLimiter) Run(ctx context.Context) {
	tick := time.NewTicker(r.window)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			r.sweep(now)
		}
	}
}

func (r *InMemoryRateLimiter) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.visitors {
		if now.Sub(v.lastSeen) >= r.window {
			delete(r.visitors, k)
		}
	}
}

// RateLimit throttles by client IP and answers 429 with Retry-After.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := limiter.take(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
