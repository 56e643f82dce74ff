package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apiContext "opssight/internal/api/context"
	"opssight/internal/platform/auth"
	"opssight/internal/platform/config"
)

// RateLimiter keeps a token bucket per client key with LRU eviction so idle
// clients age out on their own.
type RateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	limits   map[string]int
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	limits := map[string]int{
		"webhook":   cfg.WebhookPerMinute,
		"api_read":  cfg.APIReadPerMinute,
		"api_write": cfg.APIWritePerMinute,
	}
	for k, v := range limits {
		if v <= 0 {
			limits[k] = 100
		} else {
			limits[k] = v
		}
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](1000, nil, 5*time.Minute),
		limits:   limits,
	}
}

func (rl *RateLimiter) Allow(key, limitType string) bool {
	perMin, ok := rl.limits[limitType]
	if !ok {
		perMin = 100
	}

	limiter, ok := rl.limiters.Get(key)
	if !ok {
		burst := perMin / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst)
		rl.limiters.Add(key, limiter)
	}
	return limiter.Allow()
}

// Limit rate-limits by authenticated user when claims are present,
// falling back to the client IP.
func (rl *RateLimiter) Limit(limitType string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var key string
			if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims != nil {
				key = fmt.Sprintf("%s:%s", claims.UserID, limitType)
			} else {
				key = fmt.Sprintf("%s:%s", clientIP(r), limitType)
			}

			if !rl.Allow(key, limitType) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
