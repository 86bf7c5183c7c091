package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"compliancehub/internal/catalog"
	"compliancehub/internal/company"
	"compliancehub/internal/distribution"
	jwttoken "compliancehub/internal/jwt_token"
	"compliancehub/internal/platform/config"
	"compliancehub/internal/platform/httpserver"
	"compliancehub/internal/platform/logger"
	httpmetrics "compliancehub/internal/platform/metrics"
	platformredis "compliancehub/internal/platform/redis"
	tenantmetrics "compliancehub/internal/tenant/metrics"
	"compliancehub/internal/tenant/provision"
	"compliancehub/internal/tenant/registry"
	tenantrouter "compliancehub/internal/tenant/router"
	httptransport "compliancehub/internal/transport/http"
	"compliancehub/pkg/platform/audit"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	central, err := sql.Open("postgres", cfg.CentralDatabaseURL)
	if err != nil {
		log.Error("open central database", "error", err)
		os.Exit(1)
	}
	if err := central.Ping(); err != nil {
		log.Error("central database unreachable", "error", err)
		os.Exit(1)
	}
	defer central.Close()

	reg := registry.New(central, registry.WithLogger(log))
	defer reg.Close()

	tm := tenantmetrics.New()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	provisionOpts := []provision.Option{
		provision.WithLogger(log),
		provision.WithMetrics(tm),
	}
	if redisClient != nil {
		defer redisClient.Close()
		provisionOpts = append(provisionOpts,
			provision.WithResidencyCache(provision.NewRedisResidencyCache(redisClient.Client, log)))
	}
	provisioner := provision.New(cfg.CredentialServiceURL, cfg.CredentialServiceToken, reg, provisionOpts...)

	dataRouter := tenantrouter.New(reg,
		tenantrouter.WithProvisioner(provisioner),
		tenantrouter.WithLogger(log),
		tenantrouter.WithMetrics(tm),
	)

	var auditor audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, audit.WithLogger(log))
		if err != nil {
			log.Error("kafka audit publisher failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := kafka.Close(ctx); err != nil {
				log.Warn("audit publisher close failed", "error", err)
			}
		}()
		auditor = kafka
	} else {
		log.Warn("no kafka brokers configured, audit events are discarded")
	}

	catalogStore := catalog.NewPostgresStore(dataRouter)
	companyStore := company.NewPostgresStore(dataRouter)

	catalogSvc := catalog.NewService(catalogStore, catalog.WithLogger(log))
	companySvc := company.NewService(companyStore, catalogStore,
		company.WithLogger(log), company.WithAuditor(auditor),
		company.WithRelationGuard(dataRouter))
	engine := distribution.NewEngine(catalogStore, companyStore,
		distribution.WithLogger(log),
		distribution.WithAuditor(auditor),
		distribution.WithMetrics(distribution.NewMetrics(prometheus.DefaultRegisterer)),
	)

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "compliancehub", "compliancehub-api")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Catalog:        httptransport.NewCatalogHandler(catalogSvc, log),
		Company:        httptransport.NewCompanyHandler(companySvc, log),
		Distribution:   distribution.NewHandler(engine, log),
		TokenValidator: jwtSvc,
		InternalToken:  cfg.InternalToken,
		BaseDomain:     cfg.BaseDomain,
		Logger:         log,
		Metrics:        httpmetrics.New(prometheus.DefaultRegisterer),
		Health: func(r *http.Request) error {
			return central.PingContext(r.Context())
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting compliancehub", "addr", cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
