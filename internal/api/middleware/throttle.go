package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a per-client token bucket for credential endpoints, where a
// steady trickle is fine but bursts of guesses are not.
type Throttle struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	clients map[string]*throttleEntry
	swept   time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewThrottle(perMinute, burst int) *Throttle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &Throttle{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    10 * time.Minute,
		clients: make(map[string]*throttleEntry),
		swept:   time.Now(),
	}
}

func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.Sub(t.swept) > t.idle {
		for k, e := range t.clients {
			if now.Sub(e.lastSeen) > t.idle {
				delete(t.clients, k)
			}
		}
		t.swept = now
	}

	entry, ok := t.clients[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(t.limit))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(getClientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
