package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/namvu/mentorchat/internal/api/response"
	"github.com/namvu/mentorchat/internal/repository/redis"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware throttles chat turns per client address
type RateLimitMiddleware struct {
	limiter *redis.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter *redis.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit enforces the fixed-window limit keyed by client IP
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}

		allowed, remaining, reset, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// Rate limiting is best-effort: a broken limiter must not take
			// down the chat endpoint
			log.Warn().Err(err).Msg("Rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
