package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// testLimiter builds a limiter with a controllable clock and no sweeper.
func testLimiter(rate float64, burst int, exempt ...string) (*Limiter, *time.Time) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &Limiter{rate: rate, burst: burst, exempt: map[string]bool{}, now: func() time.Time { return clock }}
	for _, p := range exempt {
		l.exempt[p] = true
	}
	return l, &clock
}

func hit(h http.Handler, ip, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":12345"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLimiter_BurstThen429(t *testing.T) {
	l, _ := testLimiter(1, 3)
	h := l.Handler(okHandler)

	for i := 0; i < 3; i++ {
		rr := hit(h, "10.0.0.1", "/api/v1/calculate")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rr.Code)
		}
		if got, want := rr.Header().Get("X-RateLimit-Remaining"), strconv.Itoa(2-i); got != want {
			t.Errorf("request %d: remaining = %s, want %s", i+1, got, want)
		}
	}

	rr := hit(h, "10.0.0.1", "/api/v1/calculate")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rr.Header().Get("Retry-After"))
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body["error"] != "rate limit exceeded" {
		t.Errorf("body = %v, err = %v", body, err)
	}
}

func TestLimiter_Refills(t *testing.T) {
	l, clock := testLimiter(2, 2)
	h := l.Handler(okHandler)

	hit(h, "10.0.0.2", "/x")
	hit(h, "10.0.0.2", "/x")
	if rr := hit(h, "10.0.0.2", "/x"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}

	*clock = clock.Add(500 * time.Millisecond) // one token at 2/s
	if rr := hit(h, "10.0.0.2", "/x"); rr.Code != http.StatusOK {
		t.Errorf("after refill: status = %d", rr.Code)
	}
}

func TestLimiter_SeparateClients(t *testing.T) {
	l, _ := testLimiter(1, 1)
	h := l.Handler(okHandler)

	if rr := hit(h, "10.0.0.3", "/x"); rr.Code != http.StatusOK {
		t.Fatal(rr.Code)
	}
	if rr := hit(h, "10.0.0.4", "/x"); rr.Code != http.StatusOK {
		t.Errorf("second client limited: %d", rr.Code)
	}
}

func TestLimiter_ExemptPath(t *testing.T) {
	l, _ := testLimiter(1, 1, "/api/v1/health")
	h := l.Handler(okHandler)

	for i := 0; i < 5; i++ {
		if rr := hit(h, "10.0.0.5", "/api/v1/health"); rr.Code != http.StatusOK {
			t.Fatalf("health check %d limited", i)
		}
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, clock := testLimiter(1, 1)
	l.allow("10.0.0.6")

	*clock = clock.Add(time.Hour)
	l.allow("10.0.0.7")
	l.evictIdle(10 * time.Minute)

	if _, ok := l.buckets.Load("10.0.0.6"); ok {
		t.Error("idle bucket survived")
	}
	if _, ok := l.buckets.Load("10.0.0.7"); !ok {
		t.Error("active bucket evicted")
	}
}

func TestLimiter_RetryAfterUnknownIP(t *testing.T) {
	l, _ := testLimiter(1, 1)
	if got := l.retryAfter("192.0.2.1"); got != 1 {
		t.Errorf("retryAfter = %d, want 1", got)
	}
}

func TestNewLimiter_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLimiter(ctx, 10, 10, "/api/v1/health")
	cancel()
	if !l.exempt["/api/v1/health"] || l.burst != 10 {
		t.Errorf("limiter = %+v", l)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded for", "203.0.113.7, 10.0.0.1", "", "10.0.0.1:1", "203.0.113.7"},
		{"empty first forwarded entry", " , 10.0.0.1", "198.51.100.2", "10.0.0.1:1", "198.51.100.2"},
		{"real ip", "", "198.51.100.2", "10.0.0.1:1", "198.51.100.2"},
		{"remote addr", "", "", "192.0.2.9:4444", "192.0.2.9"},
		{"remote without port", "", "", "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
