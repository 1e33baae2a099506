// Package api implements the SourceLens REST API using chi.
package api

import (
	"net/http"
	"strings"
)

// userIDHeader carries the caller's identity. Authentication itself is
// delegated to the external auth service; the API only scopes library
// reads/writes by this value. Anonymous callers get the empty user id
// and the local library.
const userIDHeader = "X-User-Id"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}
