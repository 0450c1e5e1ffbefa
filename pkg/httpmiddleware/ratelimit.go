package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures RateLimiter.
type RateLimitConfig struct {
	// Max requests per Window for one key. Zero disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc picks the bucket for a request. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window is a two-bucket sliding window counter.
type window struct {
	start time.Time
	prev  float64
	curr  float64
}

// RateLimiter enforces a per-key sliding window limit.
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimiter creates a RateLimiter. Call Run to evict idle keys.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// take counts one request for key. It reports the remaining budget, when the
// current window ends and whether the request fits.
func (l *RateLimiter) take(key string) (remaining int, reset time.Time, ok bool) {
	now := l.now()
	size := l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		w = &window{start: now.Truncate(size)}
		l.windows[key] = w
	}
	switch since := now.Sub(w.start); {
	case since >= 2*size:
		w.prev, w.curr = 0, 0
		w.start = now.Truncate(size)
	case since >= size:
		w.prev, w.curr = w.curr, 0
		w.start = w.start.Add(size)
	}

	weight := 1 - float64(now.Sub(w.start))/float64(size)
	used := w.prev*math.Max(weight, 0) + w.curr
	reset = w.start.Add(size)
	if used >= float64(l.cfg.Max) {
		return 0, reset, false
	}
	w.curr++
	return max(l.cfg.Max-int(math.Ceil(used+1)), 0), reset, true
}

// evict drops keys that have been idle for two windows.
func (l *RateLimiter) evict() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// Run evicts idle keys until ctx is done. It returns at once when limiting
// is disabled.
func (l *RateLimiter) Run(ctx context.Context) error {
	if l.cfg.Max <= 0 || l.cfg.Window <= 0 {
		return nil
	}
	t := time.NewTicker(2 * l.cfg.Window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.evict()
		}
	}
}

// Middleware answers 429 once a key exceeds its budget. Every limited
// response carries the X-RateLimit-* headers.
func (l *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.cfg.Max <= 0 || l.cfg.Window <= 0 {
			return next
		}
		limit := strconv.Itoa(l.cfg.Max)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.take(l.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the first X-Forwarded-For hop, then X-Real-IP,
// then the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// HeaderOrClientIP keys requests by the given header when present, falling
// back to ClientIP.
func HeaderOrClientIP(header string) func(*http.Request) string {
	return func(r *http.Request) string {
		if v := r.Header.Get(header); v != "" {
			return "h:" + v
		}
		return "ip:" + ClientIP(r)
	}
}
