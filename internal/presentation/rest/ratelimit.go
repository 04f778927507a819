package rest

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// tokenBucket refills continuously up to its burst size.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    float64 // tokens per second, also the burst size
	idleTTL time.Duration
	now     func() time.Time
}

// NewRateLimiter allows each client rps requests per second.
func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    float64(rps),
		idleTTL: time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether client may make one more request, consuming a token if so.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[client]
	if !ok {
		rl.evictIdle(now)
		b = &tokenBucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[client] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * rl.rate
	if b.tokens > rl.rate {
		b.tokens = rl.rate
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// evictIdle drops buckets that have refilled completely. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.idleTTL {
			delete(rl.buckets, k)
		}
	}
}

// RateLimitMiddleware answers 429 once a client's bucket is empty. Clients
// are keyed by remote IP.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
