package middleware

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

// bucket is one client's token bucket.
type bucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// Limiter is a per-IP token bucket rate limiter.
type Limiter struct {
	buckets sync.Map // client IP -> *bucket
	rate    float64  // tokens added per second
	burst   int      // bucket capacity
	exempt  map[string]bool
	now     func() time.Time
}

// NewLimiter creates a limiter allowing rate requests per second per IP with
// bursts of up to burst. Idle buckets are swept until ctx is done. Requests
// to exempt paths are never limited.
func NewLimiter(ctx context.Context, rate float64, burst int, exempt ...string) *Limiter {
	l := &Limiter{
		rate:   rate,
		burst:  burst,
		exempt: make(map[string]bool, len(exempt)),
		now:    time.Now,
	}
	for _, p := range exempt {
		l.exempt[p] = true
	}
	go l.sweep(ctx, 5*time.Minute, 10*time.Minute)
	return l
}

// allow refills ip's bucket and tries to take one token. It returns whether
// the request may proceed and the whole tokens left.
func (l *Limiter) allow(ip string) (bool, int) {
	now := l.now()
	val, _ := l.buckets.LoadOrStore(ip, &bucket{
		tokens:     float64(l.burst),
		lastRefill: now,
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = math.Min(float64(l.burst), b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(math.Floor(b.tokens))
	}
	return false, 0
}

// retryAfter is the whole seconds until ip has a token again.
func (l *Limiter) retryAfter(ip string) int {
	val, ok := l.buckets.Load(ip)
	if !ok {
		return 1
	}
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokens >= 1 {
		return 0
	}
	return int(math.Ceil((1 - b.tokens) / l.rate))
}

// sweep drops buckets idle for longer than idle, every interval.
func (l *Limiter) sweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(idle)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) evictIdle(idle time.Duration) {
	cutoff := l.now().Add(-idle)
	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		stale := b.lastRefill.Before(cutoff)
		b.mu.Unlock()
		if stale {
			l.buckets.Delete(key)
		}
		return true
	})
}

// Handler wraps next with the limiter.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.exempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		allowed, remaining := l.allow(ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(ip)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the leftmost X-Forwarded-For entry, then X-Real-IP, then
// the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
