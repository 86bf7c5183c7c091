// Package middleware holds the HTTP middleware chain: tenant resolution,
// employee authentication, internal-API protection, and request metadata.
package middleware

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"compliancehub/pkg/requestcontext"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ValidSlug reports whether s is usable as a tenant slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ResolveTenant binds the tenant slug onto the request context. Resolution
// order: subdomain of baseDomain, X-Tenant-Slug header, tenant query
// parameter. When nothing resolves the context stays unbound and any
// tenant-owned operation downstream fails rather than touching central data.
func ResolveTenant(baseDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := tenantSlug(r, baseDomain)
			if slug != "" {
				r = r.WithContext(requestcontext.WithTenant(r.Context(), slug))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tenantSlug(r *http.Request, baseDomain string) string {
	if baseDomain != "" {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if sub, ok := strings.CutSuffix(host, "."+baseDomain); ok {
			if ValidSlug(sub) {
				return sub
			}
		}
	}
	if slug := r.Header.Get("X-Tenant-Slug"); ValidSlug(slug) {
		return slug
	}
	if slug := r.URL.Query().Get("tenant"); ValidSlug(slug) {
		return slug
	}
	return ""
}
