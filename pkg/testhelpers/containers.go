// Package testhelpers provides shared database infrastructure for
// integration tests.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/database"
	"github.com/themis-intel/themis-engine/pkg/retry"
)

// AnalystDB holds a shared PostgreSQL container with the analyst schema
// migrated, plus a connection pool against it.
type AnalystDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	sharedAnalystDB     *AnalystDB
	sharedAnalystDBOnce sync.Once
	sharedAnalystDBErr  error
)

// GetAnalystDB returns a shared analyst database for integration tests.
// The container is created once and reused across all tests in the run,
// with migrations already applied.
func GetAnalystDB(t *testing.T) *AnalystDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedAnalystDBOnce.Do(func() {
		sharedAnalystDB, sharedAnalystDBErr = setupAnalystDB()
	})

	if sharedAnalystDBErr != nil {
		t.Fatalf("Failed to setup analyst database: %v", sharedAnalystDBErr)
	}

	return sharedAnalystDB
}

func setupAnalystDB() (*AnalystDB, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("themis_test"),
		postgres.WithUsername("themis"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://themis:test_password@%s:%s/themis_test?sslmode=disable",
		host, port.Port())

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	// Verify connection with retry
	pingCfg := &retry.Config{
		MaxRetries:   9,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.5,
	}
	if err := retry.Do(ctx, pingCfg, func() error { return sqlDB.PingContext(ctx) }); err != nil {
		return nil, fmt.Errorf("database did not become reachable: %w", err)
	}

	if err := database.RunMigrations(sqlDB, migrationsDir(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &AnalystDB{
		Container: container,
		DB:        db,
		ConnStr:   connStr,
	}, nil
}

// migrationsDir resolves the repository's migrations directory relative to
// this source file so tests pass regardless of the working directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
