package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "compliancehub/internal/jwt_token"
	"compliancehub/pkg/requestcontext"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestResolveTenant(t *testing.T) {
	var gotSlug string
	var bound bool
	handler := ResolveTenant("compliancehub.io")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = requestcontext.Tenant(r.Context())
		bound = requestcontext.HasTenant(r.Context())
	}))

	t.Run("subdomain wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "techcorp.compliancehub.io:443"
		r.Header.Set("X-Tenant-Slug", "other")
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "techcorp", gotSlug)
	})

	t.Run("header fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "compliancehub.io"
		r.Header.Set("X-Tenant-Slug", "acme")
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "acme", gotSlug)
	})

	t.Run("query fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?tenant=globex", nil)
		r.Host = "compliancehub.io"
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "globex", gotSlug)
	})

	t.Run("nothing resolves leaves context unbound", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "compliancehub.io"
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.False(t, bound)
	})

	t.Run("malformed slug ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "compliancehub.io"
		r.Header.Set("X-Tenant-Slug", "Bad Slug!")
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.False(t, bound)
	})
}

func TestRequireInternalToken(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/internal/distribute", nil)
		r.Header.Set("X-Internal-Token", "s3cret")
		RequireInternalToken("s3cret")(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/internal/distribute", nil)
		r.Header.Set("X-Internal-Token", "wrong")
		RequireInternalToken("s3cret")(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/internal/distribute", nil)
		RequireInternalToken("s3cret")(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unconfigured token closes the API", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/internal/distribute", nil)
		r.Header.Set("X-Internal-Token", "")
		RequireInternalToken("")(okHandler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRequireEmployee(t *testing.T) {
	svc := jwttoken.NewJWTService("test-key", "compliancehub", "api")

	var gotEmployee int64
	chain := func(tenant string) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotEmployee = requestcontext.EmployeeID(r.Context())
		})
		h := RequireEmployee(svc, discard())(inner)
		if tenant == "" {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, r.WithContext(requestcontext.WithTenant(r.Context(), tenant)))
		})
	}

	t.Run("valid token sets employee identity", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(99, "techcorp", "owner", time.Hour)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		chain("techcorp").ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(99), gotEmployee)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		chain("techcorp").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token for another tenant rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(99, "acme", "", time.Hour)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		chain("techcorp").ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(99, "techcorp", "", -time.Minute)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		chain("techcorp").ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestMetadata(t *testing.T) {
	var gotID string
	var gotTime time.Time
	handler := RequestMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotTime = requestcontext.Now(r.Context())
	}))

	t.Run("generates id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, gotID)
		assert.Equal(t, gotID, w.Header().Get("X-Request-ID"))
		assert.WithinDuration(t, time.Now(), gotTime, time.Second)
	})

	t.Run("propagates caller id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "req-123")
		handler.ServeHTTP(w, r)
		assert.Equal(t, "req-123", gotID)
	})
}
