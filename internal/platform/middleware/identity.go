package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	jwttoken "compliancehub/internal/jwt_token"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// TokenValidator validates employee access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RequireEmployee authenticates the request with a Bearer token and puts the
// employee identity on the context. When the token names a tenant, it must
// match the tenant resolved for the request; a mismatch is a hard 403, not a
// fallback to the token's tenant.
func RequireEmployee(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err, "request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if claims.TenantSlug != "" && requestcontext.HasTenant(ctx) &&
				claims.TenantSlug != requestcontext.Tenant(ctx) {
				logger.WarnContext(ctx, "token tenant does not match request tenant",
					"token_tenant", claims.TenantSlug,
					"request_tenant", requestcontext.Tenant(ctx))
				httputil.WriteError(w, http.StatusForbidden, "token was issued for another tenant")
				return
			}

			ctx = requestcontext.WithEmployeeID(ctx, claims.EmployeeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
