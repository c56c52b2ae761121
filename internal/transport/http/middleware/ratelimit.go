package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "go-gin-chat-moderation/internal/transport/http/response"
)

// RateLimit is one token bucket shared by every caller.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeTooMany, "too many requests"))
	}
}

const (
	ipBucketIdle = 10 * time.Minute
	ipBucketMax  = 10000
)

// RateLimitPerIP keeps one bucket per client IP. Buckets idle for
// ipBucketIdle are dropped and at most ipBucketMax are held.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	return newIPLimiter(rps, burst, ipBucketIdle, ipBucketMax).handle
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	rps       rate.Limit
	burst     int
	idle      time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(rps rate.Limit, burst int, idle time.Duration, maxBuckets int) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*ipBucket),
		rps:     rps,
		burst:   burst,
		idle:    idle,
		max:     maxBuckets,
		now:     time.Now,
	}
}

func (l *ipLimiter) handle(c *gin.Context) {
	if l.bucket(c.ClientIP()).Allow() {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeTooMany, "too many requests"))
}

func (l *ipLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= l.max {
			l.evictOldest()
		}
		b = &ipBucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim
}

func (l *ipLimiter) sweep(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.seen) >= l.idle {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for ip, b := range l.buckets {
		if oldest == "" || b.seen.Before(at) {
			oldest, at = ip, b.seen
		}
	}
	delete(l.buckets, oldest)
}
