package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one numbered, reversible schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func newMigrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error opening migrations: %w", err)
	}
	return src, nil
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	src, err := newMigrationSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	migrations := []Migration{}
	version, err := src.First()
	for err == nil {
		m, readErr := readMigration(src, version)
		if readErr != nil {
			return nil, readErr
		}
		migrations = append(migrations, m)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error listing migrations: %w", err)
	}

	return migrations, nil
}

func readMigration(src source.Driver, version uint) (Migration, error) {
	m := Migration{Version: int(version)}

	up, name, err := src.ReadUp(version)
	if err != nil {
		return m, fmt.Errorf("error reading up migration %04d: %w", version, err)
	}
	defer up.Close()
	upContent, err := io.ReadAll(up)
	if err != nil {
		return m, fmt.Errorf("error reading up migration %04d: %w", version, err)
	}

	down, _, err := src.ReadDown(version)
	if err != nil {
		return m, fmt.Errorf("migration %04d_%s is missing its down script: %w", version, name, err)
	}
	defer down.Close()
	downContent, err := io.ReadAll(down)
	if err != nil {
		return m, fmt.Errorf("error reading down migration %04d: %w", version, err)
	}

	m.Name = name
	m.Up = string(upContent)
	m.Down = string(downContent)
	return m, nil
}

// newMigrator binds the embedded migrations to a dedicated connection of db.
// Closing the migrator releases that connection and leaves db open.
func newMigrator(ctx context.Context, db *sql.DB) (*migrate.Migrate, error) {
	src, err := newMigrationSource()
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("error acquiring migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		src.Close()
		conn.Close()
		return nil, fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return nil, fmt.Errorf("error creating migrator: %w", err)
	}
	return m, nil
}

func currentVersion(m *migrate.Migrate) (int, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("migration %04d failed halfway, fix the schema and force the version", version)
	}
	return int(version), nil
}

// migrationsBetween returns the migrations with from < version <= to.
func migrationsBetween(from int, to int) ([]Migration, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	var between []Migration
	for _, m := range migrations {
		if m.Version > from && m.Version <= to {
			between = append(between, m)
		}
	}
	return between, nil
}

// MigrateUp applies up to steps pending migrations, all of them when steps <= 0.
func MigrateUp(ctx context.Context, db *sql.DB, steps int) ([]Migration, error) {
	m, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	before, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	pending, err := migrationsBetween(before, math.MaxInt)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if steps <= 0 || steps >= len(pending) {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	after, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	applied, err := migrationsBetween(before, after)
	if err != nil {
		return nil, err
	}
	for _, migration := range applied {
		log.Printf("Applied migration %04d_%s", migration.Version, migration.Name)
	}
	return applied, nil
}

// MigrateDown reverts the latest steps applied migrations, newest first.
// steps <= 0 reverts one.
func MigrateDown(ctx context.Context, db *sql.DB, steps int) ([]Migration, error) {
	if steps <= 0 {
		steps = 1
	}

	m, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	before, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	applied, err := migrationsBetween(0, before)
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}
	if steps > len(applied) {
		steps = len(applied)
	}

	err = m.Steps(-steps)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("error reverting migrations: %w", err)
	}

	after, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	reverted, err := migrationsBetween(after, before)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(reverted)-1; i < j; i, j = i+1, j-1 {
		reverted[i], reverted[j] = reverted[j], reverted[i]
	}
	for _, migration := range reverted {
		log.Printf("Reverted migration %04d_%s", migration.Version, migration.Name)
	}
	return reverted, nil
}

// MigrationVersion returns the highest applied migration version, 0 when none.
func MigrationVersion(ctx context.Context, db *sql.DB) (int, error) {
	m, err := newMigrator(ctx, db)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	return currentVersion(m)
}
