package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CallerLimiter keeps one token bucket per caller, or per client IP for
// unauthenticated requests.
type CallerLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCallerLimiter allows perMinute requests per caller with the given burst.
// Entries idle for longer than ttl are dropped by Cleanup.
func NewCallerLimiter(perMinute, burst int, ttl time.Duration) *CallerLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &CallerLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
}

// Reserve takes a token for key. It returns false and the wait until the
// next token when the bucket is empty.
func (l *CallerLimiter) Reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	res := e.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup removes entries idle for longer than the configured ttl and
// returns how many remain.
func (l *CallerLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
	return len(l.entries)
}

// Size returns the number of tracked keys.
func (l *CallerLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RateLimitMiddleware rejects requests over the caller's budget with 429.
// It must run after APIKeyMiddleware and RealIPMiddleware. A nil limiter
// disables the check.
func RateLimitMiddleware(limiter *CallerLimiter, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ClientIPFromContext(r.Context())
			if caller, ok := CallerFromContext(r.Context()); ok {
				key = "caller:" + caller.Name
			}

			allowed, retryAfter := limiter.Reserve(key)
			if !allowed {
				if metrics != nil {
					metrics.RateLimitedTotal.Inc()
				}
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
