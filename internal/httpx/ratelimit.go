package httpx

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	perClientCleanupThreshold = 10_000
	perClientIdleTTL          = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiter applies a global token bucket plus a per-client token bucket
// keyed by address, grounded in the monitoring gateway's
// golang.org/x/time/rate limiter: a shared global limiter protects the
// process, a per-IP limiter keeps one noisy caller from starving others.
type limiter struct {
	global *rate.Limiter
	perIP  map[string]*clientLimiter
	mu     sync.Mutex
	rps    rate.Limit
	burst  int
}

func newLimiter(rps float64, burst int) *limiter {
	return &limiter{
		global: rate.NewLimiter(rate.Limit(rps), burst),
		perIP:  make(map[string]*clientLimiter),
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

func (l *limiter) allow(key string) bool {
	if !l.global.Allow() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.perIP[key]
	if !ok {
		item = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.perIP[key] = item
	}
	item.lastSeen = time.Now()
	if len(l.perIP) > perClientCleanupThreshold {
		l.cleanupLocked(time.Now().Add(-perClientIdleTTL))
	}
	return item.limiter.Allow()
}

func (l *limiter) cleanupLocked(threshold time.Time) {
	for key, entry := range l.perIP {
		if entry.lastSeen.Before(threshold) {
			delete(l.perIP, key)
		}
	}
}

func (r *Router) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.limiter == nil || r.limiter.allow(clientIP(req)) {
			next(w, req)
			return
		}
		r.recordRateLimitHit(req.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}
}
