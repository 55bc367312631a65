package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	now      func() time.Time

	// lastSweep bounds idle-visitor eviction to once per limiterIdleTTL.
	lastSweep time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with a burst of the same
// size. perMinute <= 0 disables limiting.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	l := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		burst:    1,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

func RateLimit(limiter *IPRateLimiter, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, r, domain.NewRateLimitedError("Too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP uses RemoteAddr, which chi's RealIP middleware rewrites when the
// server sits behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
