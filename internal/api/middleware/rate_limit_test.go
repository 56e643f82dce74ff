package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apiContext "opssight/internal/api/context"
	"opssight/internal/platform/auth"
	"opssight/internal/platform/config"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{WebhookPerMinute: 60})

	// Burst is a tenth of the per-minute budget.
	for i := 0; i < 6; i++ {
		if !rl.Allow("10.0.0.1", "webhook") {
			t.Fatalf("request %d should be within burst", i)
		}
	}
	if rl.Allow("10.0.0.1", "webhook") {
		t.Error("request beyond burst should be rejected")
	}

	// Other keys have their own buckets.
	if !rl.Allow("10.0.0.2", "webhook") {
		t.Error("a fresh key must not share the exhausted bucket")
	}
}

func TestRateLimiterZeroConfigDefaults(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{})

	if !rl.Allow("key", "api_read") {
		t.Error("unconfigured limits should fall back to a sane default")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 10})
	limited := rl.Limit("api_write")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Keyed By User", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{UserID: "usr_1"})
		req = req.WithContext(ctx)

		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("first request: status = %d, want 200", rr.Code)
		}

		rr = httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("second request: status = %d, want 429", rr.Code)
		}
		if rr.Header().Get("Retry-After") != "60" {
			t.Error("429 responses should advertise Retry-After")
		}
	})

	t.Run("Keyed By IP Without Claims", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (fresh IP bucket)", rr.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:39200"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Errorf("clientIP = %q, want 192.0.2.1", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.7")
	if got := clientIP(req); got != "198.51.100.7" {
		t.Errorf("clientIP = %q, want X-Real-IP value", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP = %q, want first X-Forwarded-For hop", got)
	}
}
