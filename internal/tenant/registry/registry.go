// Package registry holds the process-wide mapping from tenant slug to
// physical database connection. It starts empty and is populated lazily as
// tenants are first touched; entries persist for the process lifetime.
package registry

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	// Postgres driver registration for the default opener.
	_ "github.com/lib/pq"

	"compliancehub/pkg/platform/sentinel"
)

// ConnectionDescriptor carries everything needed to reach one tenant's
// database. Descriptors come from the credential service and must be
// complete before registration; a partial descriptor is never stored.
type ConnectionDescriptor struct {
	DatabaseName   string
	User           string
	Password       string
	Host           string
	Port           string
	ConnectionName string
}

// Validate rejects descriptors with missing connection fields.
func (d ConnectionDescriptor) Validate() error {
	switch {
	case d.DatabaseName == "":
		return fmt.Errorf("descriptor missing database name")
	case d.User == "":
		return fmt.Errorf("descriptor missing database user")
	case d.Host == "":
		return fmt.Errorf("descriptor missing database host")
	case d.Port == "":
		return fmt.Errorf("descriptor missing database port")
	}
	return nil
}

// DSN renders the descriptor as a lib/pq connection string.
func (d ConnectionDescriptor) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		d.Host, d.Port, d.DatabaseName, d.User, d.Password)
}

// Opener turns a descriptor into a live connection pool. Injectable so unit
// tests can substitute fakes for real Postgres connections.
type Opener func(desc ConnectionDescriptor) (*sql.DB, error)

const (
	// Tenant pools stay small: many tenants share one Postgres instance and
	// its connection limit, so idle connections are recycled after a minute.
	maxOpenConnsPerTenant = 5
	maxIdleConnsPerTenant = 2
	idleConnLifetime      = 60 * time.Second
)

func defaultOpener(desc ConnectionDescriptor) (*sql.DB, error) {
	db, err := sql.Open("postgres", desc.DSN())
	if err != nil {
		return nil, fmt.Errorf("open tenant database %s: %w", desc.ConnectionName, err)
	}
	db.SetMaxOpenConns(maxOpenConnsPerTenant)
	db.SetMaxIdleConns(maxIdleConnsPerTenant)
	db.SetConnMaxIdleTime(idleConnLifetime)
	return db, nil
}

// Registry is the shared, mutable tenant connection map. All mutation goes
// through Register under the mutex; lookups take the read lock.
type Registry struct {
	mu          sync.RWMutex
	central     *sql.DB
	descriptors map[string]ConnectionDescriptor
	pools       map[string]*sql.DB
	opener      Opener
	logger      *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithOpener overrides how connection pools are created.
func WithOpener(open Opener) Option {
	return func(r *Registry) { r.opener = open }
}

// WithLogger sets a logger for registration and pool lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates a registry over the given central database handle.
func New(central *sql.DB, opts ...Option) *Registry {
	r := &Registry{
		central:     central,
		descriptors: make(map[string]ConnectionDescriptor),
		pools:       make(map[string]*sql.DB),
		opener:      defaultOpener,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Central returns the shared central database holding the template catalog.
func (r *Registry) Central() *sql.DB { return r.central }

// Register stores the descriptor for a tenant. Re-registering the same slug
// overwrites the previous descriptor (credential rotation); any pool opened
// against the stale descriptor is closed so the next access reconnects.
func (r *Registry) Register(slug string, desc ConnectionDescriptor) error {
	if slug == "" {
		return fmt.Errorf("tenant slug is required")
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.descriptors[slug]; ok && prev != desc {
		if pool, ok := r.pools[slug]; ok {
			if err := pool.Close(); err != nil {
				r.logger.Warn("closing stale tenant pool", "tenant", slug, "error", err)
			}
			delete(r.pools, slug)
		}
		r.logger.Info("tenant connection descriptor rotated", "tenant", slug)
	}
	r.descriptors[slug] = desc
	return nil
}

// Lookup returns the descriptor registered for a tenant, if any.
func (r *Registry) Lookup(slug string) (ConnectionDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[slug]
	return desc, ok
}

// IsRegistered reports whether a descriptor exists for the tenant.
func (r *Registry) IsRegistered(slug string) bool {
	_, ok := r.Lookup(slug)
	return ok
}

// DB returns the connection pool for a tenant, opening it on first use.
// Returns sentinel.ErrTenantNotProvisioned when no descriptor is registered;
// callers must provision first, never fall back to the central database.
func (r *Registry) DB(slug string) (*sql.DB, error) {
	r.mu.RLock()
	pool, ok := r.pools[slug]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have opened the pool while we waited.
	if pool, ok := r.pools[slug]; ok {
		return pool, nil
	}
	desc, ok := r.descriptors[slug]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", slug, sentinel.ErrTenantNotProvisioned)
	}
	pool, err := r.opener(desc)
	if err != nil {
		return nil, fmt.Errorf("tenant %q: %w", slug, err)
	}
	r.pools[slug] = pool
	r.logger.Info("tenant connection pool opened", "tenant", slug, "database", desc.DatabaseName)
	return pool, nil
}

// Close closes every tenant pool. The central handle is owned by the caller
// and left open.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for slug, pool := range r.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pool for tenant %q: %w", slug, err)
		}
		delete(r.pools, slug)
	}
	return firstErr
}
