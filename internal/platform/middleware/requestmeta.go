package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"compliancehub/pkg/requestcontext"
)

// RequestMetadata stamps every request with a request ID and a request-scoped
// time. All writes within one request share the same "now" so audit events
// and domain timestamps stay consistent. The request ID is echoed back in the
// X-Request-ID response header.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
