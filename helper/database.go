package helper

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DatabaseConfiguration holds the connection parameters for PostgreSQL.
// URL takes precedence over the individual fields when set.
type DatabaseConfiguration struct {
	URL                string
	Host               string
	Port               string
	Database           string
	Username           string
	Password           string
	Schema             string
	SSLMode            string
	StatementTimeoutMs int
	MaxOpenConns       int
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// Either DATABASE_URL or DB_HOST, DB_PORT, DB_NAME and DB_USER must be set.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	config := &DatabaseConfiguration{
		URL:                os.Getenv("DATABASE_URL"),
		Host:               os.Getenv("DB_HOST"),
		Port:               getEnvOrDefault("DB_PORT", "5432"),
		Database:           os.Getenv("DB_NAME"),
		Username:           os.Getenv("DB_USER"),
		Password:           os.Getenv("DB_PASSWORD"),
		Schema:             getEnvOrDefault("DB_SCHEMA", "public"),
		SSLMode:            getEnvOrDefault("DB_SSLMODE", "disable"),
		StatementTimeoutMs: 30000,
		MaxOpenConns:       10,
	}

	var err error
	if config.StatementTimeoutMs, err = getEnvInt("DB_STATEMENT_TIMEOUT_MS", config.StatementTimeoutMs); err != nil {
		return nil, err
	}
	if config.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", config.MaxOpenConns); err != nil {
		return nil, err
	}

	if config.URL != "" {
		return config, nil
	}

	if config.Host == "" || config.Database == "" || config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("DATABASE_URL or DB_HOST, DB_NAME and DB_USER must be set"))
	}

	return config, nil
}

// DataSourceName builds the lib/pq connection string.
// Unknown keys such as statement_timeout are sent as run-time parameters.
func (c *DatabaseConfiguration) DataSourceName() (string, error) {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return "", NewError("parse database url", err)
		}
		q := u.Query()
		if c.StatementTimeoutMs > 0 && q.Get("statement_timeout") == "" {
			q.Set("statement_timeout", strconv.Itoa(c.StatementTimeoutMs))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password='%s' sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
	if c.StatementTimeoutMs > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeoutMs)
	}
	return dsn, nil
}

// Database holds the shared connection pool. It is created once at startup
// and passed to every handler.
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// NewDatabase opens and pings a PostgreSQL connection pool.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("database configuration validation", fmt.Errorf("database configuration is nil"))
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dsn, err := config.DataSourceName()
	if err != nil {
		return nil, err
	}

	instance, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, NewError("open database", err)
	}

	if config.MaxOpenConns > 0 {
		instance.SetMaxOpenConns(config.MaxOpenConns)
		instance.SetMaxIdleConns(config.MaxOpenConns)
	}
	instance.SetConnMaxLifetime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := instance.PingContext(ctx); err != nil {
		instance.Close()
		return nil, NewError("ping database", err)
	}

	logger.Info("Connected to database", slog.String("name", name))

	return &Database{
		Name:     name,
		Logger:   logger,
		Instance: instance,
	}, nil
}

// NewTestDatabase opens a database for tests and panics on failure.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(err)
	}
	return db
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

// WithTransaction runs fn inside a transaction. The transaction is committed
// when fn returns nil and rolled back otherwise, including on panic.
func (d *Database) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.Instance.BeginTx(ctx, nil)
	if err != nil {
		return NewError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				d.Logger.Error("Rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return NewError("commit transaction", err)
	}
	return nil
}

func getEnvOrDefault(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, NewError("database configuration", fmt.Errorf("%s must be an integer: %w", key, err))
	}
	return parsed, nil
}
