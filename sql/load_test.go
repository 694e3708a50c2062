package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pg_trgm extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	loaders := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"fields", func(force bool) error { return LoadFieldsSql(db.Instance, force) }, FieldsFunctions},
		{"figures", func(force bool) error { return LoadFiguresSql(db.Instance, force) }, FiguresFunctions},
		{"timeline events", func(force bool) error { return LoadEventsSql(db.Instance, force) }, EventsFunctions},
		{"influences", func(force bool) error { return LoadInfluencesSql(db.Instance, force) }, InfluencesFunctions},
	}

	for _, l := range loaders {
		t.Run("Load "+l.name+" SQL functions", func(t *testing.T) {
			err := l.load(false)
			assert.NoError(t, err)

			for _, funcName := range l.functions {
				var exists bool
				err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
				require.NoError(t, err)
				assert.True(t, exists, "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+l.name+" SQL is idempotent without force", func(t *testing.T) {
			err := l.load(false)
			assert.NoError(t, err)
		})

		t.Run("Load "+l.name+" SQL with force reloads", func(t *testing.T) {
			err := l.load(true)
			assert.NoError(t, err)

			exist, err := checkFunctions(db.Instance, l.functions)
			require.NoError(t, err)
			assert.True(t, exist, "Functions should exist after force reload")
		})
	}

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	exist, err := checkFunctions(db.Instance, []string{"this_function_does_not_exist"})
	assert.NoError(t, err)
	assert.False(t, exist, "Expected unknown function to be reported as missing")
}
