package v1

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var errRateLimitExceeded = errors.New("rate limit exceeded")

const (
	rateLimitSweepInterval = time.Minute
	rateLimitClientTTL     = 3 * time.Minute
)

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateLimitClient
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimitMiddleware limits every client IP to rps requests per second
// with the given burst. Idle clients are forgotten after a few minutes.
func NewRateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	l := newRateLimiter(rps, burst, time.Now)
	return l.handle
}

func newRateLimiter(rps float64, burst int, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		clients:   make(map[string]*rateLimitClient),
		limit:     rate.Limit(rps),
		burst:     burst,
		lastSweep: now(),
		now:       now,
	}
}

func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= rateLimitSweepInterval {
		for k, client := range l.clients {
			if now.Sub(client.lastSeen) >= rateLimitClientTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &rateLimitClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

func (l *rateLimiter) handle(c *gin.Context) {
	if !l.allow(c.ClientIP()) {
		abort(c, newAPIError(http.StatusTooManyRequests, errRateLimitExceeded.Error()))
		return
	}
	c.Next()
}
