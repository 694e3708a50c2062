package helper

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabaseName     = "database"
	testDatabaseUser     = "user"
	testDatabasePassword = "password"
)

// MustStartPostgresContainer starts a disposable PostgreSQL container and
// returns its terminate function and the mapped host port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(
		ctx,
		"postgres:17-alpine",
		postgres.WithDatabase(testDatabaseName),
		postgres.WithUsername(testDatabaseUser),
		postgres.WithPassword(testDatabasePassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("error parsing connection string: %v", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

// SetTestDatabaseConfigEnvs points NewDatabaseConfiguration at the test container.
func SetTestDatabaseConfigEnvs(t *testing.T, dbPort string) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", dbPort)
	t.Setenv("DB_NAME", testDatabaseName)
	t.Setenv("DB_USER", testDatabaseUser)
	t.Setenv("DB_PASSWORD", testDatabasePassword)
	t.Setenv("DB_SCHEMA", "public")
	t.Setenv("DB_SSLMODE", "disable")
}

// TestDatabaseConfiguration returns the configuration for a container on dbPort.
func TestDatabaseConfiguration(dbPort string) *DatabaseConfiguration {
	return &DatabaseConfiguration{
		Host:               "localhost",
		Port:               dbPort,
		Database:           testDatabaseName,
		Username:           testDatabaseUser,
		Password:           testDatabasePassword,
		Schema:             "public",
		SSLMode:            "disable",
		StatementTimeoutMs: 30000,
		MaxOpenConns:       10,
	}
}
