// Package provision bridges a tenant slug to a ready, registered database
// connection by calling the external credential/residency service.
//
// The service is treated as untrusted and unreliable: non-200 responses,
// malformed JSON, and missing fields all surface as ErrProvisioningFailed
// without registering anything. Transient failures are not retried here;
// retries with backoff belong to the caller.
package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"compliancehub/internal/tenant/metrics"
	"compliancehub/internal/tenant/registry"
	"compliancehub/pkg/platform/sentinel"
)

// Residency is a tenant's user-data residency mode.
type Residency string

const (
	// ResidencyCentralized tenants keep user data in the central database
	// and need no tenant database of their own.
	ResidencyCentralized Residency = "CENTRALIZED"
	// ResidencyIsolated tenants own a dedicated database.
	ResidencyIsolated Residency = "ISOLATED"
)

// ResidencyCache caches residency lookups so repeated EnsureRegistered calls
// for centralized tenants do not hammer the credential service. Optional.
type ResidencyCache interface {
	Get(ctx context.Context, slug string) (Residency, bool)
	Set(ctx context.Context, slug string, mode Residency)
}

const defaultTimeout = 5 * time.Second

// Client resolves tenant credentials and registers them with the registry.
// Safe for concurrent use; concurrent EnsureRegistered calls for the same
// slug collapse into a single provisioning round.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	registry   *registry.Registry
	cache      ResidencyCache
	group      singleflight.Group
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithResidencyCache enables residency-mode caching.
func WithResidencyCache(cache ResidencyCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the provisioning logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the provisioning metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a provisioning client against the credential service at
// baseURL, authenticating with the given static internal token.
func New(baseURL, token string, reg *registry.Registry, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		token:      token,
		registry:   reg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// EnsureRegistered makes sure the tenant's database connection is registered,
// provisioning it from the credential service if absent. A no-op when the
// tenant is already registered or its residency mode is centralized.
func (c *Client) EnsureRegistered(ctx context.Context, slug string) error {
	if slug == "" {
		return fmt.Errorf("tenant slug is required")
	}
	if c.registry.IsRegistered(slug) {
		return nil
	}

	_, err, _ := c.group.Do(slug, func() (any, error) {
		// A concurrent caller may have finished provisioning while this one
		// waited on the flight group.
		if c.registry.IsRegistered(slug) {
			return nil, nil
		}
		return nil, c.provision(ctx, slug)
	})
	return err
}

func (c *Client) provision(ctx context.Context, slug string) error {
	mode, err := c.residency(ctx, slug)
	if err != nil {
		c.metrics.IncProvisioningFailure()
		return err
	}
	if mode == ResidencyCentralized {
		c.logger.Info("tenant is centralized, no tenant database needed", "tenant", slug)
		return nil
	}

	desc, err := c.fetchCredentials(ctx, slug)
	if err != nil {
		c.metrics.IncProvisioningFailure()
		return err
	}
	if err := c.registry.Register(slug, desc); err != nil {
		c.metrics.IncProvisioningFailure()
		return fmt.Errorf("register tenant %q: %w: %w", slug, sentinel.ErrProvisioningFailed, err)
	}

	c.metrics.IncProvisioned()
	c.logger.Info("tenant database registered", "tenant", slug, "database", desc.DatabaseName)
	return nil
}

// Residency returns the tenant's residency mode, consulting the cache first.
func (c *Client) Residency(ctx context.Context, slug string) (Residency, error) {
	return c.residency(ctx, slug)
}

func (c *Client) residency(ctx context.Context, slug string) (Residency, error) {
	if c.cache != nil {
		if mode, ok := c.cache.Get(ctx, slug); ok {
			return mode, nil
		}
	}

	var payload struct {
		UserDataResidency string `json:"user_data_residency"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tenants/%s/residency", slug), &payload); err != nil {
		return "", err
	}

	mode := Residency(payload.UserDataResidency)
	switch mode {
	case ResidencyCentralized, ResidencyIsolated:
	default:
		return "", fmt.Errorf("tenant %q: unknown residency mode %q: %w",
			slug, payload.UserDataResidency, sentinel.ErrProvisioningFailed)
	}

	if c.cache != nil {
		c.cache.Set(ctx, slug, mode)
	}
	return mode, nil
}

func (c *Client) fetchCredentials(ctx context.Context, slug string) (registry.ConnectionDescriptor, error) {
	var payload struct {
		Credentials struct {
			DatabaseName     string      `json:"database_name"`
			DatabaseUser     string      `json:"database_user"`
			DatabasePassword string      `json:"database_password"`
			DatabaseHost     string      `json:"database_host"`
			DatabasePort     json.Number `json:"database_port"`
			ConnectionName   string      `json:"connection_name"`
		} `json:"credentials"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tenants/%s/credentials", slug), &payload); err != nil {
		return registry.ConnectionDescriptor{}, err
	}

	desc := registry.ConnectionDescriptor{
		DatabaseName:   payload.Credentials.DatabaseName,
		User:           payload.Credentials.DatabaseUser,
		Password:       payload.Credentials.DatabasePassword,
		Host:           payload.Credentials.DatabaseHost,
		Port:           payload.Credentials.DatabasePort.String(),
		ConnectionName: payload.Credentials.ConnectionName,
	}
	if err := desc.Validate(); err != nil {
		return registry.ConnectionDescriptor{}, fmt.Errorf("tenant %q credentials: %w: %w",
			slug, sentinel.ErrProvisioningFailed, err)
	}
	return desc, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	start := time.Now()
	defer c.metrics.ObserveCredentialCall(start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build credential request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("credential service %s: %w: %w", path, sentinel.ErrProvisioningFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("credential service %s returned %d (%s): %w",
			path, resp.StatusCode, string(body), sentinel.ErrProvisioningFailed)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("credential service %s malformed response: %w: %w",
			path, sentinel.ErrProvisioningFailed, err)
	}
	return nil
}
