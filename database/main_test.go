package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
	loadSql "github.com/siherrmann/chronosatlas/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

// initDB returns a migrated database without any rows.
func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(database.Instance)
	require.NoError(t, err)

	_, err = loadSql.MigrateUp(context.Background(), database.Instance, 0)
	require.NoError(t, err)

	_, err = database.Instance.Exec(`TRUNCATE influences, figure_fields, figures, fields, timeline_events`)
	require.NoError(t, err, "failed to truncate tables")

	return database
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

// newFigure builds a valid figure whose slug is derived from name.
func newFigure(name string, birth int, death *int) *model.Figure {
	return &model.Figure{
		Name:                name,
		Slug:                helper.Slugify(name),
		NormalizedBirthYear: birth,
		NormalizedDeathYear: death,
		InstanceOfIDs:       []string{},
	}
}
