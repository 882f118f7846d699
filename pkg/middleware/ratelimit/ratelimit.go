package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/noah-isme/pdf-page-api/pkg/clientip"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

const idleTimeout = 3 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles requests per transport peer address with a token bucket of size requests that
// refills over window.
type Limiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// New returns a limiter. It returns nil when requests is not positive, and a nil limiter lets
// every request through.
func New(requests int, window time.Duration) *Limiter {
	if requests <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether ip may proceed.
func (l *Limiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = l.now()
	l.mu.Unlock()

	return c.limiter.Allow()
}

// Middleware rejects throttled requests with 429. Requests are keyed on the peer address
// because X-Forwarded-For is set by the client.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(clientip.Peer(c.Request)) {
			response.AbortWithError(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// Sweep drops clients idle for longer than the idle timeout and returns how many remain.
func (l *Limiter) Sweep() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idleTimeout)
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
	return len(l.clients)
}

// Run sweeps idle clients every minute until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	if l == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}
