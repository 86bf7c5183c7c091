// Package httptransport wires the HTTP API. Three surfaces share one router:
// the public tenant API under /api/v1, the operator API under /internal, and
// the unauthenticated operational endpoints (/healthz, /metrics).
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compliancehub/internal/distribution"
	"compliancehub/internal/platform/metrics"
	"compliancehub/internal/platform/middleware"
	"compliancehub/pkg/platform/httputil"
)

// RouterConfig collects everything the router mounts.
type RouterConfig struct {
	Catalog      *CatalogHandler
	Company      *CompanyHandler
	Distribution *distribution.Handler

	TokenValidator middleware.TokenValidator
	InternalToken  string
	BaseDomain     string

	Logger *slog.Logger

	// Metrics instruments requests when set; nil disables instrumentation.
	Metrics *metrics.Metrics

	// Health reports readiness of downstream dependencies; nil means
	// "always healthy".
	Health func(r *http.Request) error
}

// NewRouter builds the full HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMetadata)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware(func(req *http.Request) string {
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				return pattern
			}
		}
		return "unmatched"
	}))
	r.Use(middleware.ResolveTenant(cfg.BaseDomain))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req); err != nil {
				httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireEmployee(cfg.TokenValidator, cfg.Logger))
		// catalog reads are central; tenant binding is irrelevant there
		api.Route("/catalog", func(cat chi.Router) {
			cfg.Catalog.RegisterRead(cat)
		})
		cfg.Company.Register(api)
	})

	r.Route("/internal", func(internal chi.Router) {
		internal.Use(middleware.RequireInternalToken(cfg.InternalToken))
		internal.Post("/distribute", cfg.Distribution.Distribute)
		internal.Route("/catalog", func(admin chi.Router) {
			cfg.Catalog.RegisterAdmin(admin)
		})
	})

	return r
}
