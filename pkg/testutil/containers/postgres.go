//go:build integration

// Package containers manages throwaway infrastructure for integration tests.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/lib/pq"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "postgres"
	postgresPassword = "postgres"
	centralDatabase  = "compliancehub"
)

// PostgresContainer wraps a testcontainers Postgres instance together with an
// open pool on the central database. One container can host additional
// databases to stand in for per-tenant databases.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        *sql.DB
	Host      string
	Port      string
}

// NewPostgresContainer starts a Postgres container and connects to its
// central database. The container is terminated when the test finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(centralDatabase),
		tcpostgres.WithUsername(postgresUser),
		tcpostgres.WithPassword(postgresPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open central database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping central database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &PostgresContainer{
		Container: container,
		DB:        db,
		Host:      host,
		Port:      mapped.Port(),
	}
}

// User and Password expose the container credentials for building tenant
// connection descriptors.
func (p *PostgresContainer) User() string     { return postgresUser }
func (p *PostgresContainer) Password() string { return postgresPassword }

// CreateDatabase creates an extra database on the container and applies the
// given schema to it. Used to simulate isolated per-tenant databases.
func (p *PostgresContainer) CreateDatabase(ctx context.Context, t *testing.T, name, schema string) {
	t.Helper()

	if _, err := p.DB.ExecContext(ctx, "CREATE DATABASE "+name); err != nil {
		t.Fatalf("failed to create database %s: %v", name, err)
	}

	dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		p.Host, p.Port, name, postgresUser, postgresPassword)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database %s: %v", name, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema to %s: %v", name, err)
	}
}

// ApplySchema runs DDL against the central database.
func (p *PostgresContainer) ApplySchema(ctx context.Context, t *testing.T, schema string) {
	t.Helper()
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
}

// TruncateTables truncates the given tables on the central database,
// cascading to dependents. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
