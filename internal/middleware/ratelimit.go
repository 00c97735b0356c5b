package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter applies a per-IP token bucket to the login endpoint to slow
// down credential stuffing. Idle entries are evicted in the background.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates a limiter allowing r requests per second with the
// given burst per client IP.
func NewLoginLimiter(r float64, burst int) *LoginLimiter {
	if r <= 0 {
		r = 0.5 // 1 request per 2 seconds
	}
	if burst <= 0 {
		burst = 5
	}
	l := &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(r),
		burst:    burst,
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from the given remote address may proceed.
func (l *LoginLimiter) Allow(remoteAddr string) bool {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}

	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// Middleware rejects over-limit requests with 429. Only POST requests are
// limited; rendering the login form is unthrottled.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !l.Allow(r.RemoteAddr) {
			http.Error(w, "Too many requests, try again shortly", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) cleanup() {
	for range time.Tick(10 * time.Minute) {
		l.mu.Lock()
		for ip, entry := range l.limiters {
			if time.Since(entry.lastSeen) > 30*time.Minute {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}
