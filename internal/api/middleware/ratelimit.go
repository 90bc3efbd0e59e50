package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter counts requests per key over a sliding window.
type RateLimiter struct {
	requests int
	window   time.Duration

	mu      sync.Mutex
	clients map[string][]time.Time
	stop    chan struct{}
}

func NewRateLimiter(requests int, windowSeconds int) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	rl := &RateLimiter{
		requests: requests,
		window:   time.Duration(windowSeconds) * time.Second,
		clients:  make(map[string][]time.Time),
		stop:     make(chan struct{}),
	}
	go rl.janitor(time.Minute)
	return rl
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, stamps := range rl.clients {
				if len(stamps) == 0 || now.Sub(stamps[len(stamps)-1]) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow records a request for key if the window has room. It returns the
// requests left and when the window next frees a slot.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := rl.clients[key]
	live := 0
	for live < len(stamps) && !stamps[live].After(cutoff) {
		live++
	}
	stamps = stamps[live:]

	if len(stamps) >= rl.requests {
		rl.clients[key] = stamps
		return false, 0, stamps[0].Add(rl.window)
	}

	stamps = append(stamps, now)
	rl.clients[key] = stamps
	return true, rl.requests - len(stamps), stamps[0].Add(rl.window)
}

func (rl *RateLimiter) middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, reset := rl.Allow(keyFn(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(reset).Seconds())+1, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits every request by client address.
func RateLimit(requests int, windowSeconds int) func(http.Handler) http.Handler {
	return NewRateLimiter(requests, windowSeconds).middleware(getClientIP)
}

// RateLimitByUser limits by the authenticated user, falling back to the
// client address when the request carries no session.
func RateLimitByUser(requests int, windowSeconds int) func(http.Handler) http.Handler {
	return NewRateLimiter(requests, windowSeconds).middleware(func(r *http.Request) string {
		if userID := GetUserID(r.Context()); userID != "" {
			return "user:" + userID
		}
		return getClientIP(r)
	})
}

// getClientIP prefers proxy headers, then the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
