package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitConfig configures the per-client token bucket
type RateLimitConfig struct {
	// RPS is the sustained requests per second per key
	RPS float64

	// Burst is how many requests a key may make at once
	Burst int

	// KeyFunc extracts the rate limit key, defaults to the remote IP
	KeyFunc func(*http.Request) string

	// Now is the clock, defaults to time.Now
	Now func() time.Time
}

// RateLimitMiddleware answers 429 once a key exhausts its bucket
func RateLimitMiddleware(config *RateLimitConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = remoteIP
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	store := newLimiterStore(rate.Limit(config.RPS), config.Burst, config.Now)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := config.KeyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !store.allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(config.RPS)))
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(rps float64) int {
	if rps <= 0 || rps >= 1 {
		return 1
	}
	return int(1/rps + 0.5)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per key and drops buckets idle past limiterIdleTTL
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastPurge time.Time
}

func newLimiterStore(limit rate.Limit, burst int, now func() time.Time) *limiterStore {
	if burst < 1 {
		burst = 1
	}
	return &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		limit:     limit,
		burst:     burst,
		now:       now,
		lastPurge: now(),
	}
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPurge) > limiterIdleTTL {
		for k, entry := range s.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastPurge = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
