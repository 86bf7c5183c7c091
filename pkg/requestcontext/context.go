// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The most important value carried here is the active tenant slug. Routing
// decisions for tenant-owned collections depend on it, so it lives in the
// context chain rather than any package-level variable: two requests for
// different tenants running on different goroutines can never observe each
// other's binding, and an aborted request drops its binding with its context.
//
// Usage in services (read values):
//
//	slug := requestcontext.Tenant(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithTenant(ctx, slug)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// The distribution engine interleaves central reads with tenant writes by
// deriving two contexts from the same parent:
//
//	readCtx := requestcontext.ClearTenant(ctx)
//	writeCtx := requestcontext.WithTenant(ctx, slug)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	tenantKey      struct{}
	employeeIDKey  struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyTenant      = tenantKey{}
	ContextKeyEmployeeID  = employeeIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Tenant returns the tenant slug bound to the current unit of work, or ""
// if no tenant is bound or the binding was cleared.
func Tenant(ctx context.Context) string {
	if slug, ok := ctx.Value(ContextKeyTenant).(string); ok {
		return slug
	}
	return ""
}

// WithTenant binds a tenant slug to the context. It overwrites any binding
// inherited from the parent context.
func WithTenant(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, slug)
}

// ClearTenant removes any tenant binding from the context. Safe to call on
// a context that never had one; Tenant on the result always returns "".
// The parent context is untouched, so a binding held by a caller cannot be
// corrupted by a callee clearing its own view.
func ClearTenant(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, "")
}

// HasTenant reports whether a non-empty tenant slug is bound.
func HasTenant(ctx context.Context) bool {
	return Tenant(ctx) != ""
}

// EmployeeID retrieves the authenticated employee identifier (external HR
// system id) from the context. Returns 0 if not set.
func EmployeeID(ctx context.Context) int64 {
	if id, ok := ctx.Value(ContextKeyEmployeeID).(int64); ok {
		return id
	}
	return 0
}

// WithEmployeeID injects an employee identifier into the context.
func WithEmployeeID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ContextKeyEmployeeID, id)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for batch jobs that need one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
