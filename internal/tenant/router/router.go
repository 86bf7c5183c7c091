// Package router decides, for every entity collection and the tenant bound
// to the calling context, which physical database a read or write must use.
//
// Routing rules:
//   - template catalog collections always resolve to the central database,
//     even while a tenant is bound (template reads must never be
//     accidentally tenant-scoped)
//   - tenant-owned collections require a bound tenant; resolving one with
//     no tenant bound is a hard error, never a silent fallback to the
//     central database
//   - anything else defaults to the central database
//
// Tenants whose database is not yet registered are provisioned lazily on
// first access through the injected Provisioner.
package router

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"compliancehub/internal/tenant/metrics"
	"compliancehub/internal/tenant/registry"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// CentralDatabase is the locality key for the shared central database.
const CentralDatabase = "central"

// Provisioner lazily registers a tenant's database connection on first
// access. Implemented by the provisioning client; nil disables lazy
// provisioning (tests, pre-registered fleets).
type Provisioner interface {
	EnsureRegistered(ctx context.Context, slug string) error
}

// Router resolves collections to database handles.
type Router struct {
	registry    *registry.Registry
	provisioner Provisioner
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures the Router.
type Option func(*Router)

// WithProvisioner enables lazy provisioning of unregistered tenants.
func WithProvisioner(p Provisioner) Option {
	return func(r *Router) { r.provisioner = p }
}

// WithLogger sets the routing logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithMetrics sets the routing metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router over the given registry.
func New(reg *registry.Registry, opts ...Option) *Router {
	r := &Router{registry: reg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Read resolves the database to read the collection from.
func (r *Router) Read(ctx context.Context, col Collection) (*sql.DB, error) {
	return r.resolve(ctx, col)
}

// Write resolves the database to write the collection to. Reads and writes
// follow the same policy in this system; there are no read replicas.
func (r *Router) Write(ctx context.Context, col Collection) (*sql.DB, error) {
	return r.resolve(ctx, col)
}

func (r *Router) resolve(ctx context.Context, col Collection) (*sql.DB, error) {
	if col.IsTemplate() || !col.IsTenantOwned() {
		r.metrics.IncResolution("template")
		return r.registry.Central(), nil
	}

	slug := requestcontext.Tenant(ctx)
	if slug == "" {
		r.metrics.IncRoutingError("not_bound")
		r.logger.Error("tenant-owned collection accessed with no tenant bound",
			"collection", string(col))
		return nil, fmt.Errorf("collection %q: %w", col, sentinel.ErrTenantNotBound)
	}

	if !r.registry.IsRegistered(slug) && r.provisioner != nil {
		if err := r.provisioner.EnsureRegistered(ctx, slug); err != nil {
			r.metrics.IncRoutingError("not_provisioned")
			return nil, err
		}
	}

	db, err := r.registry.DB(slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrTenantNotProvisioned) {
			r.metrics.IncRoutingError("not_provisioned")
		} else {
			r.metrics.IncRoutingError("open_failed")
		}
		return nil, err
	}
	r.metrics.IncResolution("tenant")
	return db, nil
}

// Locality identifies the physical database an entity lives in: either
// CentralDatabase or a tenant slug. Stores record it when loading entities
// so relation checks can compare ends loaded at different times.
type Locality string

// LocalityOf returns the locality a collection resolves to under the
// current context, without opening any connection.
func (r *Router) LocalityOf(ctx context.Context, col Collection) (Locality, error) {
	if col.IsTemplate() || !col.IsTenantOwned() {
		return CentralDatabase, nil
	}
	slug := requestcontext.Tenant(ctx)
	if slug == "" {
		return "", fmt.Errorf("collection %q: %w", col, sentinel.ErrTenantNotBound)
	}
	return Locality(slug), nil
}

// AllowRelation reports whether two entities may reference each other under
// the current context. The allowed set is the central database plus, when a
// tenant is bound, that one tenant's database. A relation whose ends live in
// two different tenants' databases is never allowed.
func (r *Router) AllowRelation(ctx context.Context, a, b Locality) bool {
	allowed := map[Locality]struct{}{CentralDatabase: {}}
	if slug := requestcontext.Tenant(ctx); slug != "" {
		allowed[Locality(slug)] = struct{}{}
	}
	_, okA := allowed[a]
	_, okB := allowed[b]
	return okA && okB
}

// RequireSameDatabase rejects a relation whose ends are not in the allowed
// set for the current context. This indicates a routing bug, so it is logged
// loudly rather than swallowed.
func (r *Router) RequireSameDatabase(ctx context.Context, a, b Locality) error {
	if r.AllowRelation(ctx, a, b) {
		return nil
	}
	r.metrics.IncRelationRejected()
	r.logger.Error("cross-tenant relation rejected",
		"end_a", string(a),
		"end_b", string(b),
		"bound_tenant", requestcontext.Tenant(ctx))
	return fmt.Errorf("relation between %q and %q: %w", a, b, sentinel.ErrCrossTenantRelation)
}
