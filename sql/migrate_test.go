package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err, "Expected embedded migrations to parse")
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "Expected migrations to be numbered without gaps")
		assert.NotEmpty(t, m.Up, "Expected migration %s to have an up script", m.Name)
		assert.NotEmpty(t, m.Down, "Expected migration %s to have a down script", m.Name)
	}
}

func TestMigrateUpDown(t *testing.T) {
	db := initDB(t)
	defer db.Close()
	ctx := context.Background()

	migrations, err := Migrations()
	require.NoError(t, err)
	latest := migrations[len(migrations)-1].Version

	t.Run("Migrate up is a no-op when everything is applied", func(t *testing.T) {
		applied, err := MigrateUp(ctx, db.Instance, 0)
		assert.NoError(t, err)
		assert.Empty(t, applied)

		version, err := MigrationVersion(ctx, db.Instance)
		require.NoError(t, err)
		assert.Equal(t, latest, version)
	})

	t.Run("Migrate down reverts the lifespan index", func(t *testing.T) {
		reverted, err := MigrateDown(ctx, db.Instance, 2)
		require.NoError(t, err)
		require.Len(t, reverted, 2)
		assert.Equal(t, latest, reverted[0].Version, "Expected the newest migration to be reverted first")

		var exists bool
		err = db.Instance.QueryRow(`SELECT to_regclass('figures_lifespan_gist_idx') IS NOT NULL`).Scan(&exists)
		require.NoError(t, err)
		assert.False(t, exists, "Expected figures_lifespan_gist_idx to be dropped")

		version, err := MigrationVersion(ctx, db.Instance)
		require.NoError(t, err)
		assert.Equal(t, latest-2, version)
	})

	t.Run("Migrate up by steps", func(t *testing.T) {
		applied, err := MigrateUp(ctx, db.Instance, 1)
		require.NoError(t, err)
		require.Len(t, applied, 1)

		var exists bool
		err = db.Instance.QueryRow(`SELECT to_regclass('figures_lifespan_gist_idx') IS NOT NULL`).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "Expected figures_lifespan_gist_idx to be recreated")
	})

	t.Run("Full down and up round trip", func(t *testing.T) {
		_, err := MigrateUp(ctx, db.Instance, 0)
		require.NoError(t, err)

		reverted, err := MigrateDown(ctx, db.Instance, len(migrations))
		require.NoError(t, err)
		assert.Len(t, reverted, len(migrations))

		var exists bool
		err = db.Instance.QueryRow(`SELECT to_regclass('figures') IS NOT NULL`).Scan(&exists)
		require.NoError(t, err)
		assert.False(t, exists, "Expected figures table to be dropped")

		applied, err := MigrateUp(ctx, db.Instance, 0)
		require.NoError(t, err)
		assert.Len(t, applied, len(migrations))

		err = LoadAllSql(db.Instance, false)
		assert.NoError(t, err, "Expected SQL functions to load on the recreated schema")
	})

	t.Run("Constraints carry the names used for error translation", func(t *testing.T) {
		names := []string{
			"figures_slug_key",
			"figures_external_id_key",
			"figures_lifespan_check",
			"fields_name_key",
			"influences_pair_key",
			"influences_no_self_check",
			"influences_influencer_id_fkey",
		}
		for _, name := range names {
			var exists bool
			err := db.Instance.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_constraint WHERE conname = $1)`, name).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Expected constraint %s to exist", name)
		}
	})
}
