package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/internal/tenant/registry"
	"compliancehub/pkg/platform/sentinel"
)

const testToken = "internal-test-token"

type credentialService struct {
	*httptest.Server
	residencyCalls  atomic.Int32
	credentialCalls atomic.Int32

	residency   string
	residencyOK bool
	credentials string
	credsStatus int
}

func newCredentialService(t *testing.T) *credentialService {
	t.Helper()
	svc := &credentialService{
		residency:   `{"user_data_residency":"ISOLATED"}`,
		residencyOK: true,
		credsStatus: http.StatusOK,
		credentials: `{"credentials":{
			"database_name":"techcorp_db",
			"database_user":"techcorp_user",
			"database_password":"secret",
			"database_host":"db.internal",
			"database_port":5432,
			"connection_name":"techcorp_compliance_db"}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tenants/{slug}/residency", func(w http.ResponseWriter, r *http.Request) {
		svc.residencyCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !svc.residencyOK {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, svc.residency)
	})
	mux.HandleFunc("GET /tenants/{slug}/credentials", func(w http.ResponseWriter, r *http.Request) {
		svc.credentialCalls.Add(1)
		w.WriteHeader(svc.credsStatus)
		fmt.Fprint(w, svc.credentials)
	})

	svc.Server = httptest.NewServer(mux)
	t.Cleanup(svc.Server.Close)
	return svc
}

func newTestRegistry() *registry.Registry {
	return registry.New(nil, registry.WithOpener(func(desc registry.ConnectionDescriptor) (*sql.DB, error) {
		return sql.Open("postgres", desc.DSN())
	}))
}

func TestEnsureRegistered(t *testing.T) {
	t.Run("registers isolated tenant", func(t *testing.T) {
		svc := newCredentialService(t)
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		require.NoError(t, c.EnsureRegistered(context.Background(), "techcorp"))

		desc, ok := reg.Lookup("techcorp")
		require.True(t, ok)
		assert.Equal(t, "techcorp_db", desc.DatabaseName)
		assert.Equal(t, "5432", desc.Port)
		assert.Equal(t, "techcorp_compliance_db", desc.ConnectionName)
	})

	t.Run("already registered is a no-op", func(t *testing.T) {
		svc := newCredentialService(t)
		reg := newTestRegistry()
		require.NoError(t, reg.Register("techcorp", registry.ConnectionDescriptor{
			DatabaseName: "techcorp_db", User: "u", Password: "p", Host: "h", Port: "5432",
		}))
		c := New(svc.URL, testToken, reg)

		require.NoError(t, c.EnsureRegistered(context.Background(), "techcorp"))
		assert.Equal(t, int32(0), svc.residencyCalls.Load())
		assert.Equal(t, int32(0), svc.credentialCalls.Load())
	})

	t.Run("centralized tenant short-circuits without registering", func(t *testing.T) {
		svc := newCredentialService(t)
		svc.residency = `{"user_data_residency":"CENTRALIZED"}`
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		require.NoError(t, c.EnsureRegistered(context.Background(), "smallcorp"))
		assert.False(t, reg.IsRegistered("smallcorp"))
		assert.Equal(t, int32(0), svc.credentialCalls.Load())
	})

	t.Run("non-200 credential response fails without registering", func(t *testing.T) {
		svc := newCredentialService(t)
		svc.credsStatus = http.StatusServiceUnavailable
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		err := c.EnsureRegistered(context.Background(), "techcorp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrProvisioningFailed))
		assert.False(t, reg.IsRegistered("techcorp"))
	})

	t.Run("malformed JSON fails without registering", func(t *testing.T) {
		svc := newCredentialService(t)
		svc.credentials = `{"credentials": not-json`
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		err := c.EnsureRegistered(context.Background(), "techcorp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrProvisioningFailed))
		assert.False(t, reg.IsRegistered("techcorp"))
	})

	t.Run("missing credential fields never register a partial descriptor", func(t *testing.T) {
		svc := newCredentialService(t)
		svc.credentials = `{"credentials":{"database_name":"techcorp_db"}}`
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		err := c.EnsureRegistered(context.Background(), "techcorp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrProvisioningFailed))
		assert.False(t, reg.IsRegistered("techcorp"))
	})

	t.Run("unknown residency mode is a provisioning failure", func(t *testing.T) {
		svc := newCredentialService(t)
		svc.residency = `{"user_data_residency":"REGIONAL"}`
		reg := newTestRegistry()
		c := New(svc.URL, testToken, reg)

		err := c.EnsureRegistered(context.Background(), "techcorp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrProvisioningFailed))
	})

	t.Run("unreachable service surfaces provisioning failure", func(t *testing.T) {
		reg := newTestRegistry()
		c := New("http://127.0.0.1:1", testToken, reg)

		err := c.EnsureRegistered(context.Background(), "techcorp")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrProvisioningFailed))
	})

	t.Run("empty slug rejected", func(t *testing.T) {
		reg := newTestRegistry()
		c := New("http://localhost", testToken, reg)
		require.Error(t, c.EnsureRegistered(context.Background(), ""))
	})
}

// TestEnsureRegistered_ConcurrentDedup fires many concurrent provisioning
// attempts for one never-before-seen tenant; exactly one round of calls may
// reach the credential service.
func TestEnsureRegistered_ConcurrentDedup(t *testing.T) {
	svc := newCredentialService(t)
	reg := newTestRegistry()
	c := New(svc.URL, testToken, reg)

	var wg sync.WaitGroup
	errs := make([]error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = c.EnsureRegistered(context.Background(), "techcorp")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), svc.residencyCalls.Load())
	assert.Equal(t, int32(1), svc.credentialCalls.Load())
	assert.True(t, reg.IsRegistered("techcorp"))
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]Residency
}

func (c *mapCache) Get(_ context.Context, slug string) (Residency, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode, ok := c.m[slug]
	return mode, ok
}

func (c *mapCache) Set(_ context.Context, slug string, mode Residency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[slug] = mode
}

func TestResidencyCache(t *testing.T) {
	svc := newCredentialService(t)
	svc.residency = `{"user_data_residency":"CENTRALIZED"}`
	reg := newTestRegistry()
	cache := &mapCache{m: make(map[string]Residency)}
	c := New(svc.URL, testToken, reg, WithResidencyCache(cache))

	// Centralized tenants are not registered, so each call would re-resolve
	// residency; the cache keeps it to one service call.
	require.NoError(t, c.EnsureRegistered(context.Background(), "smallcorp"))
	require.NoError(t, c.EnsureRegistered(context.Background(), "smallcorp"))

	assert.Equal(t, int32(1), svc.residencyCalls.Load())
	mode, ok := cache.Get(context.Background(), "smallcorp")
	require.True(t, ok)
	assert.Equal(t, ResidencyCentralized, mode)
}
