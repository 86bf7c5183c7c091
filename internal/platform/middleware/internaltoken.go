package middleware

import (
	"crypto/subtle"
	"net/http"

	"compliancehub/pkg/platform/httputil"
)

// RequireInternalToken guards operator-facing endpoints with a shared static
// token. An empty configured token disables the internal API entirely rather
// than leaving it open.
func RequireInternalToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				httputil.WriteError(w, http.StatusServiceUnavailable, "internal API is not configured")
				return
			}
			got := r.Header.Get("X-Internal-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid internal token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
