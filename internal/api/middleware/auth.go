// Package middleware holds the HTTP middleware of the API server.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth requires `Authorization: Bearer <token>`. An empty token disables the check.
func Auth(token string, unauthorized http.HandlerFunc, next http.Handler) http.Handler {
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
			subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
