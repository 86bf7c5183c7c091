// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr string

	// CentralDatabaseURL is the DSN of the central database holding template
	// frameworks and the tenant directory.
	CentralDatabaseURL string

	// Credential service settings. The credential service hands out
	// per-tenant database DSNs; tenant DSNs never appear in our environment.
	CredentialServiceURL     string
	CredentialServiceToken   string
	CredentialServiceTimeout time.Duration

	// InternalToken guards the internal API (distribution, provisioning).
	InternalToken string

	// BaseDomain enables subdomain tenant resolution: a request to
	// <slug>.<BaseDomain> binds that tenant. Empty disables it.
	BaseDomain string

	// JWTSigningKey verifies employee access tokens.
	JWTSigningKey string

	RedisURL string

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel        string
	ShutdownTimeout time.Duration
}

// FromEnv reads configuration from environment variables, applying
// development defaults where a value is safe to default.
func FromEnv() Config {
	cfg := Config{
		Addr:                     envOr("COMPLIANCEHUB_ADDR", ":8080"),
		CentralDatabaseURL:       os.Getenv("CENTRAL_DATABASE_URL"),
		CredentialServiceURL:     os.Getenv("CREDENTIAL_SERVICE_URL"),
		CredentialServiceToken:   os.Getenv("CREDENTIAL_SERVICE_TOKEN"),
		CredentialServiceTimeout: durationOr("CREDENTIAL_SERVICE_TIMEOUT", 5*time.Second),
		InternalToken:            os.Getenv("INTERNAL_API_TOKEN"),
		BaseDomain:               os.Getenv("TENANT_BASE_DOMAIN"),
		JWTSigningKey:            envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		KafkaTopic:               envOr("KAFKA_AUDIT_TOPIC", "compliance.audit"),
		LogLevel:                 envOr("LOG_LEVEL", "info"),
		ShutdownTimeout:          durationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
