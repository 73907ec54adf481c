package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/namvu/mentorchat/internal/api/response"
)

// AdminMiddleware guards administrative endpoints with a shared token.
// With no token configured the endpoints are disabled outright.
type AdminMiddleware struct {
	token string
}

// NewAdminMiddleware creates a new admin middleware
func NewAdminMiddleware(token string) *AdminMiddleware {
	return &AdminMiddleware{token: token}
}

// Require rejects requests that do not carry the admin token
func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			response.Forbidden(w, "administrative API is disabled")
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.token)) != 1 {
			response.Unauthorized(w, "invalid admin token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
